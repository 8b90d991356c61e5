package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/cellstack/cellstack"
	"github.com/cellstack/cellstack/pkg/domain"
)

var describeCmd = &cobra.Command{
	Use:   "describe <model.yaml>",
	Short: "Summarize a model descriptor",
	Long:  `Loads a stack descriptor from a YAML file and prints a structural summary: cell order, state shapes and resolved output sizes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")

		stack, err := loadStack(args[0])
		if err != nil {
			return err
		}

		md := summarize(stack)
		if plain {
			fmt.Print(md)
			return nil
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(), // detect light/dark background
		)
		if err != nil {
			fmt.Print(md)
			return nil
		}
		out, err := r.Render(md)
		if err != nil {
			fmt.Print(md)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("plain", false, "Print raw markdown without terminal styling")
}

// loadStack decodes a model document. A document describing a single plain
// cell is wrapped into a one-cell stack.
func loadStack(path string) (*cellstack.Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	cell, err := cellstack.NewCodec().DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	if stack, ok := cell.(*cellstack.Stack); ok {
		return stack, nil
	}
	return cellstack.New([]domain.Cell{cell})
}

// summarize renders the stack structure as markdown.
func summarize(stack *cellstack.Stack) string {
	var b strings.Builder

	name := stack.Name()
	if name == "" {
		name = "(unnamed stack)"
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	fmt.Fprintf(&b, "- cells: %d\n", stack.Len())
	fmt.Fprintf(&b, "- dtype: %s\n", stack.DType())
	fmt.Fprintf(&b, "- state shape: %s\n", stack.StateShape())
	if n, ok := stack.OutputSize(); ok {
		fmt.Fprintf(&b, "- output size: %d\n", n)
	}
	b.WriteString("\n| # | type | state shape | output size |\n|---|------|-------------|-------------|\n")

	for i, cell := range stack.Cells() {
		typeName := fmt.Sprintf("%T", cell)
		if named, ok := cell.(domain.Configurable); ok {
			typeName = named.CellType()
		}
		width := "-"
		if n, err := domain.ResolveOutputSize(cell); err == nil {
			width = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i, typeName, cell.StateShape(), width)
	}
	b.WriteString("\n")
	return b.String()
}
