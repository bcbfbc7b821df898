// Command cgfit fits parametric models and minimizes test functions
// with the nonlinear conjugate gradient method.
package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
