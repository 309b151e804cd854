package main

import "github.com/SeopE9611/sub010-backend/internal/cli"

func main() {
	cli.Execute()
}
