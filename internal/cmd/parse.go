package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coffersTech/nanosearch/internal/pkg/nanoql"
)

func newParseCmd() *cobra.Command {
	var rpn bool
	cmd := &cobra.Command{
		Use:   "parse <expr>...",
		Short: "compile a boolean expression and print its tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if rpn {
				tokens, err := nanoql.ToRPN(expr)
				if err != nil {
					return err
				}
				lexemes := make([]string, len(tokens))
				for i, tok := range tokens {
					lexemes[i] = tok.Lexeme
				}
				_, err = fmt.Fprintln(out, strings.Join(lexemes, " "))
				return err
			}

			root, err := nanoql.Compile(expr)
			if err != nil {
				return err
			}
			return nanoql.PrintTree(out, root)
		},
	}
	cmd.Flags().BoolVar(&rpn, "rpn", false, "print the reverse polish form instead of the tree")
	return cmd
}
