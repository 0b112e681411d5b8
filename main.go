package main

import "github.com/yuzeguitarist/qrgen/internal/cmd"

func main() {
	cmd.Execute()
}
