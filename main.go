package main

import "video-overlay/cmd"

func main() {
	cmd.Execute()
}
