package main

import "github.com/theirongolddev/farelog/cmd"

func main() {
	cmd.Execute()
}
