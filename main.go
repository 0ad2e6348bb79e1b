package main

import "github.com/ethan-huo/env/cmd"

func main() {
	cmd.Execute()
}
