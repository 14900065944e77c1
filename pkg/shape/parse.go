// parse.go - SVG path data parser.
package shape

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// pathLexer tokenizes SVG path data. Number comes first so exponents are not
// read as commands.
var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Cmd", Pattern: `[MmLlHhVvCcQqZz]`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `[\s]+`},
})

type pathData struct {
	Commands []*pathCommand `@@*`
}

type pathCommand struct {
	Pos  lexer.Position
	Cmd  string    `@Cmd`
	Args []float64 `( @Number Comma? )*`
}

var pathParser = participle.MustBuild[pathData](
	participle.Lexer(pathLexer),
	participle.Elide("Whitespace"),
)

// ParsePathData parses SVG path data made of M, L, H, V, Q, C and Z commands
// (absolute or relative) into absolute segments.
func ParsePathData(d string) (Path, error) {
	ast, err := pathParser.ParseString("", d)
	if err != nil {
		return nil, fmt.Errorf("parse path data: %w", err)
	}

	var p Path
	var x, y, sx, sy float64
	for _, c := range ast.Commands {
		rel := c.Cmd[0] >= 'a'
		op := c.Cmd[0] &^ 0x20 // upper case
		n := 0
		switch op {
		case 'M', 'L':
			n = 2
		case 'H', 'V':
			n = 1
		case 'Q':
			n = 4
		case 'C':
			n = 6
		case 'Z':
			if len(c.Args) != 0 {
				return nil, fmt.Errorf("%s: %q takes no arguments", c.Pos, c.Cmd)
			}
			p = append(p, closePath())
			x, y = sx, sy
			continue
		}
		if len(c.Args) == 0 || len(c.Args)%n != 0 {
			return nil, fmt.Errorf("%s: %q needs a multiple of %d arguments, got %d", c.Pos, c.Cmd, n, len(c.Args))
		}

		for i := 0; i < len(c.Args); i += n {
			a := c.Args[i : i+n]
			ox, oy := 0.0, 0.0
			if rel {
				ox, oy = x, y
			}
			switch op {
			case 'M':
				x, y = a[0]+ox, a[1]+oy
				if i == 0 {
					p = append(p, move(x, y))
					sx, sy = x, y
				} else {
					// extra pairs after a move are implicit line-tos
					p = append(p, line(x, y))
				}
			case 'L':
				x, y = a[0]+ox, a[1]+oy
				p = append(p, line(x, y))
			case 'H':
				x = a[0] + ox
				p = append(p, line(x, y))
			case 'V':
				y = a[0] + oy
				p = append(p, line(x, y))
			case 'Q':
				p = append(p, quad(a[0]+ox, a[1]+oy, a[2]+ox, a[3]+oy))
				x, y = a[2]+ox, a[3]+oy
			case 'C':
				p = append(p, cubic(a[0]+ox, a[1]+oy, a[2]+ox, a[3]+oy, a[4]+ox, a[5]+oy))
				x, y = a[4]+ox, a[5]+oy
			}
		}
	}
	if len(p) > 0 && p[0].Op != OpMove {
		return nil, fmt.Errorf("path data must start with a move")
	}
	return p, nil
}
