package parser

import "git.lost.host/meutraa/tiles/internal/game"

type Parser interface {
	Parse(file string) (*game.Chart, error)
}
