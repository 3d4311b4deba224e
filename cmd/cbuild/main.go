package main

import (
	"github.com/cbuild-io/cbuild/cmd/cbuild/internal"
)

func main() {
	internal.Execute()
}
