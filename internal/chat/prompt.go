package chat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
)

const (
	promptPosts      = 20
	promptTopDays    = 3
	promptTopHours   = 5
	promptExtremes   = 3
	promptDescLength = 100
	noData           = "Dados não disponíveis"
)

// SystemPrompt renders the analyst instructions and the data summary.
func SystemPrompt(c Context) string {
	var b strings.Builder
	profile := "do perfil"
	if c.Profile != "" {
		profile = "do perfil @" + strings.TrimPrefix(c.Profile, "@")
	}
	fmt.Fprintf(&b, "Você é um assistente especializado em análise de dados de Instagram. Você tem acesso aos dados de performance %s e deve ajudar o usuário a entender suas métricas e melhorar sua estratégia de conteúdo.\n\n", profile)

	b.WriteString("## DADOS DO PERFIL\n\nResumo Geral:\n")
	fmt.Fprintf(&b, "- Total de posts analisados: %d\n", c.TotalPosts)
	fmt.Fprintf(&b, "- Total de visualizações: %s\n", groupThousands(c.TotalViews))
	fmt.Fprintf(&b, "- Total de alcance: %s\n", groupThousands(c.TotalReach))
	fmt.Fprintf(&b, "- Total de curtidas: %s\n", groupThousands(c.TotalLikes))
	fmt.Fprintf(&b, "- Total de comentários: %s\n", groupThousands(c.TotalComments))
	fmt.Fprintf(&b, "- Total de compartilhamentos: %s\n", groupThousands(c.TotalShares))
	fmt.Fprintf(&b, "- Total de salvamentos: %s\n", groupThousands(c.TotalSaves))
	fmt.Fprintf(&b, "- Novos seguidores gerados: %s\n", groupThousands(c.TotalFollows))
	fmt.Fprintf(&b, "- Taxa de engajamento média: %.2f%%\n", c.AvgEngagement)
	fmt.Fprintf(&b, "- Média de visualizações por post: %.0f\n", c.AvgViews)
	fmt.Fprintf(&b, "- Média de alcance por post: %.0f\n\n", c.AvgReach)

	b.WriteString("## DETALHES DOS POSTS (últimos posts)\n")
	if len(c.Posts) == 0 {
		b.WriteString("\nSem dados disponíveis\n")
	}
	for i, p := range c.Posts {
		if i == promptPosts {
			break
		}
		writePost(&b, i+1, p)
	}

	b.WriteString("\n## ANÁLISES ESTATÍSTICAS\n\nPerformance por Tipo de Conteúdo:\n")
	lines := make([]string, 0, len(c.TypeStats))
	for _, t := range c.TypeStats {
		lines = append(lines, fmt.Sprintf("- %s: %d posts, média %.0f views, %.2f%% engajamento", t.Type, t.PostCount, t.AvgViews, t.AvgEngagement))
	}
	writeLines(&b, lines)

	b.WriteString("\nMelhores Dias para Postar:\n")
	days := append([]analysis.DayPerformance(nil), c.DayStats...)
	sort.SliceStable(days, func(i, j int) bool { return days[i].AvgViews > days[j].AvgViews })
	lines = lines[:0]
	for i, d := range days {
		if i == promptTopDays {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s: média %.0f views", d.Day, d.AvgViews))
	}
	writeLines(&b, lines)

	b.WriteString("\nMelhores Horários:\n")
	hours := append([]analysis.HourPerformance(nil), c.HourStats...)
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].AvgViews > hours[j].AvgViews })
	lines = lines[:0]
	for i, h := range hours {
		if i == promptTopHours {
			break
		}
		lines = append(lines, fmt.Sprintf("- %d:00: média %.0f views", h.Hour, h.AvgViews))
	}
	writeLines(&b, lines)

	byViews := append([]PostSummary(nil), c.Posts...)
	sort.SliceStable(byViews, func(i, j int) bool { return byViews[i].Views < byViews[j].Views })
	b.WriteString("\nPosts com Menor Performance (para aprendizado):\n")
	lines = lines[:0]
	for i := 0; i < len(byViews) && i < promptExtremes; i++ {
		p := byViews[i]
		lines = append(lines, fmt.Sprintf("- %s (%s): %d views, %.2f%% engajamento", p.Type, p.PublishedAt, p.Views, p.EngagementRate))
	}
	writeLines(&b, lines)

	sort.SliceStable(byViews, func(i, j int) bool { return byViews[i].Views > byViews[j].Views })
	b.WriteString("\nPosts com Maior Performance:\n")
	lines = lines[:0]
	for i := 0; i < len(byViews) && i < promptExtremes; i++ {
		p := byViews[i]
		lines = append(lines, fmt.Sprintf("- %s (%s): %s views, %.2f%% engajamento", p.Type, p.PublishedAt, groupThousands(p.Views), p.EngagementRate))
	}
	writeLines(&b, lines)

	b.WriteString(instructions)
	return b.String()
}

func writePost(b *strings.Builder, n int, p PostSummary) {
	duration := "N/A"
	if p.Duration > 0 {
		duration = strconv.FormatFloat(p.Duration, 'f', -1, 64) + "s"
	}
	fmt.Fprintf(b, "\nPost %d:\n", n)
	fmt.Fprintf(b, "- Tipo: %s\n", p.Type)
	fmt.Fprintf(b, "- Data: %s\n", p.PublishedAt)
	fmt.Fprintf(b, "- Visualizações: %s\n", groupThousands(p.Views))
	fmt.Fprintf(b, "- Alcance: %s\n", groupThousands(p.Reach))
	fmt.Fprintf(b, "- Curtidas: %d\n", p.Likes)
	fmt.Fprintf(b, "- Comentários: %d\n", p.Comments)
	fmt.Fprintf(b, "- Compartilhamentos: %d\n", p.Shares)
	fmt.Fprintf(b, "- Salvamentos: %d\n", p.Saves)
	fmt.Fprintf(b, "- Novos seguidores: %d\n", p.Follows)
	fmt.Fprintf(b, "- Taxa de engajamento: %.2f%%\n", p.EngagementRate)
	fmt.Fprintf(b, "- Duração: %s\n", duration)
	fmt.Fprintf(b, "- Período: %s\n", p.Period)
	fmt.Fprintf(b, "- Dia da semana: %s\n", p.DayOfWeek)
	fmt.Fprintf(b, "- Hora: %d:00\n", p.Hour)
	fmt.Fprintf(b, "- Descrição: %s...\n", headRunes(p.Description, promptDescLength))
}

func writeLines(b *strings.Builder, lines []string) {
	if len(lines) == 0 {
		b.WriteString(noData + "\n")
		return
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteByte('\n')
}

func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// groupThousands formats n with "." separators, as pt-BR does.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	return sign + strings.Join(append([]string{s}, groups...), ".")
}

const instructions = `
## INSTRUÇÕES

1. Responda sempre em português brasileiro, de forma clara e amigável
2. Baseie suas respostas nos dados fornecidos acima
3. Seja específico com números e datas quando possível
4. Forneça insights acionáveis e recomendações práticas
5. Se o usuário perguntar algo que não está nos dados, explique o que você pode analisar
6. Use emojis ocasionalmente para tornar a conversa mais agradável
7. Quando falar sobre performance ruim, seja construtivo e sugira melhorias
8. Compare métricas entre diferentes tipos de conteúdo quando relevante
9. Destaque padrões e tendências que você identificar nos dados

Exemplos de perguntas que você pode responder:
- "Qual meu melhor tipo de conteúdo?"
- "Qual o melhor horário para postar?"
- "Onde eu poderia melhorar?"
- "Quais posts tiveram pior performance e por quê?"
- "Como está minha taxa de engajamento?"
- "Quantos seguidores eu ganhei?"
- "Qual dia da semana performa melhor?"`
