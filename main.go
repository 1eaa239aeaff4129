package main

import "github.com/gaurav-prasanna/faleproxy/cmd"

func main() {
	cmd.Execute()
}
