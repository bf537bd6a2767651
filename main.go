package main

import (
	"os"

	"github.com/jimmyBizMobile/SensAI/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
