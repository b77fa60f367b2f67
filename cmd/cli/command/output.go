package command

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	labelColor   = color.New(color.FgCyan)
	titleColor   = color.New(color.FgYellow, color.Bold)
	successColor = color.New(color.FgGreen)
	dimColor     = color.New(color.Faint)
	warnColor    = color.New(color.FgRed)
)

func success(format string, a ...any) {
	successColor.Printf("✓ "+format+"\n", a...)
}

func info(format string, a ...any) {
	dimColor.Printf(format+"\n", a...)
}

func field(label, value string) {
	if value == "" {
		return
	}
	labelColor.Printf("%-12s", label+":")
	fmt.Println(value)
}

func heading(s string) {
	titleColor.Println(s)
}

func rule() {
	dimColor.Println(strings.Repeat("-", 50))
}

func pageFooter(page, totalPages int, total int64) {
	if totalPages > 1 {
		info("page %d/%d, %d total", page, totalPages, total)
	}
}
