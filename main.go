package main

import "github/chapool/chat-wallet/cmd"

func main() {
	cmd.Execute()
}
