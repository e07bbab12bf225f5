package util

import (
	"log"
	"time"
)

// Trace 记录一段操作的耗时，用法：defer util.Trace("gen mask")()
func Trace(name string) func() {
	start := time.Now()
	return func() {
		log.Printf("%s took %v", name, time.Since(start))
	}
}
