package gamification

// BadgesPerLevel is how many badges it takes to advance one level.
const BadgesPerLevel = 2

var LevelNames = []string{
	"Aprendiz de Mordomo",
	"Mordomo Iniciante",
	"Semeador Diligente",
	"Administrador Zeloso",
	"Guardião dos Recursos",
	"Ofertante Alegre",
	"Poupador Sábio",
	"Mordomo Generoso",
	"Mordomo Exemplar",
	"Mordomo Fiel e Prudente",
}

type Level struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
}

// LevelFor maps a badge count to a level. Negative counts are treated as 0.
func LevelFor(count int) Level {
	if count < 0 {
		count = 0
	}
	idx := count / BadgesPerLevel
	if idx > len(LevelNames)-1 {
		idx = len(LevelNames) - 1
	}
	return Level{
		Index:    idx,
		Name:     LevelNames[idx],
		Progress: float64(count%BadgesPerLevel) / BadgesPerLevel * 100,
	}
}
