package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cloudbees-oss/juxr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var ec *cmd.ExitCodeError
		if errors.As(err, &ec) {
			if ec.Err != nil {
				fmt.Fprintln(os.Stderr, ec.Err)
			}
			os.Exit(ec.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
