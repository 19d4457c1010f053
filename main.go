package main

import "github.com/stevehiehn/trinity/cmd"

func main() {
	cmd.Execute()
}
