package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"
)

const pageSize = 20

// pager tracks the highlighted row of a list shown pageSize rows at a time.
type pager struct {
	n        int
	page     int
	selected int // offset within the page
}

func (p *pager) pages() int { return (p.n + pageSize - 1) / pageSize }

func (p *pager) pageLen() int {
	start := p.page * pageSize
	return min(pageSize, p.n-start)
}

func (p *pager) index() int { return p.page*pageSize + p.selected }

func (p *pager) up() bool {
	if p.selected > 0 {
		p.selected--
		return true
	}
	return false
}

func (p *pager) down() bool {
	if p.selected < p.pageLen()-1 {
		p.selected++
		return true
	}
	return false
}

func (p *pager) prev() bool {
	if p.page > 0 {
		p.page--
		p.selected = 0
		return true
	}
	return false
}

func (p *pager) next() bool {
	if p.page < p.pages()-1 {
		p.page++
		p.selected = 0
		return true
	}
	return false
}

// rawTerm switches a terminal in and out of raw mode. restore is a no-op
// unless the terminal is currently raw.
type rawTerm struct {
	fd    int
	saved *term.State

	makeRaw func(fd int) (*term.State, error)
	restore func(fd int, st *term.State) error
}

func newRawTerm(fd int) *rawTerm {
	return &rawTerm{fd: fd, makeRaw: term.MakeRaw, restore: term.Restore}
}

func (r *rawTerm) enable() error {
	st, err := r.makeRaw(r.fd)
	if err != nil {
		return err
	}
	r.saved = st
	return nil
}

func (r *rawTerm) disable() {
	if r.saved == nil {
		return
	}
	_ = r.restore(r.fd, r.saved)
	r.saved = nil
}

// interactiveSelect lets the user move through lines with arrow keys, page with
// ←/→ and press Enter to run show for the matching key. It expects
// len(keys)==len(lines).
func interactiveSelect(keys []string, lines []string, show func(key string)) {
	if len(keys) == 0 {
		return
	}

	if runtime.GOOS == "windows" {
		enableVT()
	}

	rt := newRawTerm(int(os.Stdin.Fd()))
	if err := rt.enable(); err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return
	}
	defer rt.disable()

	reader := bufio.NewReader(os.Stdin)
	p := &pager{n: len(keys)}

	redraw := func() {
		// Clear screen (ANSI reset to top + clear screen). Raw mode needs explicit CR.
		fmt.Print("\033[H\033[2J")
		start := p.page * pageSize
		for i := start; i < start+p.pageLen(); i++ {
			prefix := "  "
			if i-start == p.selected {
				prefix = "> "
			}
			fmt.Print(prefix + lines[i] + "\r\n")
		}
		if p.pages() > 1 {
			fmt.Printf("(↑/↓ navigate, ←/→ page, Enter details, Esc quit)  Page %d/%d\r\n", p.page+1, p.pages())
		} else {
			fmt.Print("(↑/↓ to navigate, Enter to view details, Esc to quit)\r\n")
		}
	}

	enter := func() bool {
		rt.disable() // cooked mode while rendering details
		fmt.Println()
		show(keys[p.index()])

		// Wait for user acknowledgement before returning to list
		fmt.Print("\n(press Enter to return)")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')

		if err := rt.enable(); err != nil {
			return false
		}
		if runtime.GOOS == "windows" {
			enableVT()
		}
		reader = bufio.NewReader(os.Stdin)
		redraw()
		return true
	}

	redraw()

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return
		}

		// Handle Windows console arrow sequences (0 or 224, then code)
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			moved := false
			switch b2 {
			case 72: // up
				moved = p.up()
			case 80: // down
				moved = p.down()
			case 75: // left
				moved = p.prev()
			case 77: // right
				moved = p.next()
			case 13: // Enter
				if !enter() {
					return
				}
			}
			if moved {
				redraw()
			}
			continue
		}

		switch b1 {
		case 27: // ESC or ANSI sequence
			if reader.Buffered() == 0 {
				// Bare ESC – exit
				fmt.Print("\r\n")
				return
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			moved := false
			switch b3 {
			case 'A':
				moved = p.up()
			case 'B':
				moved = p.down()
			case 'D':
				moved = p.prev()
			case 'C':
				moved = p.next()
			}
			if moved {
				redraw()
			}
		case '\r', '\n': // Enter
			if !enter() {
				return
			}
		case 3: // Ctrl-C
			fmt.Print("\r\n")
			return
		default:
			// ignore other keys
		}
	}
}
