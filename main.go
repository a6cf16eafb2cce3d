package main

import "github.com/gaurav-prasanna/marc2csv/cmd"

func main() {
	cmd.Execute()
}
