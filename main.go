package main

import "github.com/cristicbz/riakgo/cmd"

func main() {
	cmd.Execute()
}
