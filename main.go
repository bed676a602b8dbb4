package main

import "rfamscan/cmd"

func main() {
	cmd.Execute()
}
