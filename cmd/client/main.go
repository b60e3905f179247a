// Command client is a minimal terminal front-end for the Parley chat
// protocol: it performs the name handshake, relays stdin lines to the
// server, and prints received lines. It performs no room-management logic
// of its own.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/gookit/color"

	"github.com/parley-chat/parley/internal/wire"
)

func main() {
	addr := flag.String("addr", "localhost:3355", "chat server address")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	if err := run(*addr, !*noColor); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string, colored bool) error {
	netConn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to server: %w", err)
	}
	conn := wire.NewConn(netConn, wire.MaxFrameSize)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			line, err := conn.ReadFrame()
			if err != nil {
				fmt.Println("Disconnected from server.")
				return
			}
			printLine(line, colored)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		msg := scanner.Text()
		if err := conn.WriteFrame(msg); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
		if strings.EqualFold(msg, "exit") {
			break
		}
	}

	_ = conn.Close()
	<-done
	return scanner.Err()
}

// printLine renders one received line. Room notifications and server
// notices get a distinct color from relayed chat text.
func printLine(line string, colored bool) {
	if !colored {
		fmt.Println(line)
		return
	}

	switch {
	case strings.HasPrefix(line, "["):
		// "[room] name: text" is chat; every other "[room] ..." line is a
		// room notification.
		if strings.Contains(line, ": ") {
			fmt.Println(line)
		} else {
			color.New(color.FgCyan).Println(line)
		}
	default:
		color.New(color.FgGreen).Println(line)
	}
}
