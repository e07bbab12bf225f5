package main

import (
	"context"
	"flag"
	"image"
	"log"
	"path/filepath"
	"strings"

	"github.com/chaos-io/swissknife/rembg"
	"github.com/chaos-io/swissknife/util"
)

func main() {
	inputPath := flag.String("input", "input/my_image1.png", "input image, local path or http(s) URL")
	outputDir := flag.String("output", "./output", "output directory")
	mode := flag.String("mode", "colorkey", "removal mode: colorkey or ai")
	tolerance := flag.Float64("tolerance", 10, "color key tolerance, 0-100")
	trim := flag.Bool("trim", false, "crop the result to the subject")
	flag.Parse()

	var img image.Image
	var err error
	if strings.HasPrefix(*inputPath, "http://") || strings.HasPrefix(*inputPath, "https://") {
		img, err = util.DownloadImage(*inputPath)
	} else {
		img, err = util.OpenImage(*inputPath)
	}
	if err != nil {
		log.Fatal("Failed to load image:", err)
	}

	m, err := rembg.ParseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}
	remover, err := rembg.ForMode(m, *tolerance)
	if err != nil {
		log.Fatal(err)
	}

	defer util.Trace("remove background")()

	out, err := remover.Remove(context.Background(), img)
	if err != nil {
		log.Fatal("Failed to remove background:", err)
	}

	if *trim {
		trimmed, err := rembg.TrimToSubject(out, 0.8)
		if err != nil {
			log.Fatal("Failed to trim result:", err)
		}
		rembg.Premultiply(trimmed)
		out = trimmed
	}

	name := strings.TrimSuffix(filepath.Base(*inputPath), filepath.Ext(*inputPath))
	outPath := filepath.Join(*outputDir, name+"_nobg.png")
	if err := util.SaveImage(outPath, out); err != nil {
		log.Fatal("Failed to save image:", err)
	}

	log.Println("Done! Output:", outPath)
}
