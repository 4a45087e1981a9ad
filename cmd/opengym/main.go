package main

import "github.com/theakshaypant/opengym/cmd/opengym/cmd"

func main() {
	cmd.Execute()
}
