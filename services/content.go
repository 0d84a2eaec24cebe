package services

type Verse struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

type Tip struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Verses rotate on the dashboard.
var Verses = []Verse{
	{"Na casa do sábio há comida escolhida e azeite, mas o tolo tudo desperdiça.", "Provérbios 21:20"},
	{"Quem ama o dinheiro nunca terá dinheiro suficiente.", "Eclesiastes 5:10"},
	{"O que o sábio acumula com a mão é melhor que o que o tolo desperdiça.", "Provérbios 10:14"},
	{"O amor ao dinheiro é a raiz de todos os males.", "1 Timóteo 6:10"},
	{"Mais bem-aventurado é dar do que receber.", "Atos 20:35"},
}

// TitheVerses are listed on the contributions page.
var TitheVerses = []Verse{
	{"Trazei todos os dízimos à casa do tesouro, para que haja mantimento na minha casa...", "Malaquias 3:10"},
	{"Cada um contribua segundo propôs no seu coração; não com tristeza, ou por necessidade; porque Deus ama ao que dá com alegria.", "2 Coríntios 9:7"},
	{"Honra ao Senhor com os teus bens, e com as primícias de toda a tua renda.", "Provérbios 3:9"},
}

var Tips = []Tip{
	{1, "Registre suas transações", "Registre todas as suas transações para manter controle total do seu dinheiro."},
	{2, "Estabeleça metas", "Estabeleça metas realistas e acompanhe seu progresso regularmente."},
	{3, "Dízimo e ofertas", "Separe uma porcentagem para dízimo e ofertas conforme sua fé."},
	{4, "Fundo de emergência", "Crie um fundo de emergência para situações inesperadas."},
	{5, "Revise seus gastos", "Revise seus gastos mensalmente e ajuste seu orçamento conforme necessário."},
	{6, "Educação financeira", "Invista em educação financeira para melhorar suas decisões."},
	{7, "Evite dívidas", "Evite dívidas desnecessárias e viva dentro de suas possibilidades."},
	{8, "Pratique gratidão", "Pratique a gratidão pelos recursos que você tem."},
}
