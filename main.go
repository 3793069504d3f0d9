package main

import "github.com/ovitag/porterbot/cmd"

func main() {
	cmd.Execute()
}
