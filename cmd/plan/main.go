package main

import "github.com/theakshaypant/plan/cmd/plan/cmd"

func main() {
	cmd.Execute()
}
