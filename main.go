package main

import "github.com/qcmbuilder/qcm-api/cli"

func main() {
	cli.Execute()
}
