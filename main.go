package main

import "comicshelf/cmd"

func main() {
	cmd.Execute()
}
