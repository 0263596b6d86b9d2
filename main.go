package main

import "github.com/sw33tLie/qrsafe/cmd"

func main() {
	cmd.Execute()
}
