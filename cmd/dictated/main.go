package main

import (
	"github.com/Danial-Baharvand/wisper-sub000/internal/bootstrap"
)

func main() {
	bootstrap.Run()
}
