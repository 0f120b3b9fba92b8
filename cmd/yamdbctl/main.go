package main

import "github.com/princeprakhar/yamdb-backend/cmd/yamdbctl/command"

func main() {
	command.Execute()
}
