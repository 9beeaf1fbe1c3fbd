package main

import "github.com/ezeeEric/batchbuddha/cmd"

func main() {
	cmd.Execute()
}
