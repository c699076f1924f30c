package main

import goos "os"

func main() {
	goos.Exit(3) // want "avoid using os.Exit in main.main"
}
