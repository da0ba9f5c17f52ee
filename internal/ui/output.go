// Package ui prints colored CLI progress output.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgWhite)
)

// Header prints a banner line with the text centered.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step.
func Step(n, total int, text string) {
	stepColor.Printf("[%d/%d] %s\n", n, total, text)
}

// Success prints a completion message.
func Success(format string, args ...any) {
	successColor.Printf("✓ "+format+"\n", args...)
}

// Warning prints a non-fatal warning.
func Warning(format string, args ...any) {
	warningColor.Printf("! "+format+"\n", args...)
}

// Error prints a failure message.
func Error(format string, args ...any) {
	errorColor.Printf("✗ "+format+"\n", args...)
}

// Info prints a neutral detail line.
func Info(format string, args ...any) {
	infoColor.Printf("  "+format+"\n", args...)
}

// BlueText returns the text colored blue.
func BlueText(text string) string {
	return stepColor.Sprint(text)
}

// YellowText returns the text colored yellow.
func YellowText(text string) string {
	return warningColor.Sprint(text)
}

// center left-pads text so it sits in the middle of width. Text wider than
// width is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return fmt.Sprintf("%s%s", strings.Repeat(" ", (width-len(text))/2), text)
}
