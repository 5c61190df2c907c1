package main

import "github.com/witibot/witibot/cmd"

func main() {
	cmd.Execute()
}
