package main

import "github.com/khanhnv2901/hapi-cli/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
