package main

import "github.com/yubihsm/scp03/cmd/yubihsm-cli/cmd"

func main() {
	cmd.Execute()
}
