package main

import "github.com/dbsmedya/polyseed/cmd/polyseed/cmd"

func main() {
	cmd.Execute()
}
