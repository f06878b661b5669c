// devsetup runs the interactive .env wizard for first-time users.
package main

import (
	"fmt"
	"os"

	"github.com/tikgrab/tikgrab/internal/envsetup"
)

func main() {
	if !envsetup.NeedsSetup() {
		fmt.Println("A .env file already exists; delete it first to reconfigure.")
		return
	}

	done, err := envsetup.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup failed:", err)
		os.Exit(1)
	}
	if !done {
		fmt.Println("Setup cancelled.")
		return
	}

	fmt.Println("\n✅ .env file created successfully!")
	fmt.Println("\nNext steps:")
	fmt.Println("1. go build ./cmd/bot")
	fmt.Println("2. ./bot")
}
