// Command awaymail forwards chat messages for away users to e-mail.
package main

import "github.com/Sentinel-Gate/awaymail/cmd/awaymail/cmd"

func main() {
	cmd.Execute()
}
