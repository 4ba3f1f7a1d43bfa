package main

import "github.com/alessandronigro/corsi-backoffice/cmd"

func main() {
	cmd.Init()
}
