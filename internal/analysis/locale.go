package analysis

// Columns names the source labels for each post field.
type Columns struct {
	ID          string
	AccountID   string
	Username    string
	AccountName string
	Description string
	PostType    string
	Duration    string
	Permalink   string
	PublishedAt string
	Views       string
	Reach       string
	Likes       string
	Shares      string
	Follows     string
	Comments    string
	Saves       string
}

// Locale bundles the language-dependent parts of parsing: column labels,
// weekday names and accepted date layouts.
type Locale struct {
	Name        string
	Columns     Columns
	DayNames    [7]string // indexed by time.Weekday
	DateLayouts []string  // tried in order before the ISO fallbacks
	DefaultType string
}

// DayName returns the localized weekday name for 0=Sunday..6=Saturday.
func (l Locale) DayName(dow int) string {
	if dow < 0 || dow > 6 {
		return ""
	}
	return l.DayNames[dow]
}

// LocalePTBR matches the Portuguese export of Instagram insights.
var LocalePTBR = Locale{
	Name: "pt-BR",
	Columns: Columns{
		ID:          "Identificação do post",
		AccountID:   "Identificação da conta",
		Username:    "Nome de usuário da conta",
		AccountName: "Nome da conta",
		Description: "Descrição",
		PostType:    "Tipo de post",
		Duration:    "Duração (s)",
		Permalink:   "Link permanente",
		PublishedAt: "Horário de publicação",
		Views:       "Visualizações",
		Reach:       "Alcance",
		Likes:       "Curtidas",
		Shares:      "Compartilhamentos",
		Follows:     "Seguimentos",
		Comments:    "Comentários",
		Saves:       "Salvamentos",
	},
	DayNames:    [7]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"},
	DateLayouts: []string{"2/1/2006 15:04", "2/1/2006 15:04:05", "2/1/2006"},
	DefaultType: "Reel do Instagram",
}

// LocaleEN matches the English export labels.
var LocaleEN = Locale{
	Name: "en",
	Columns: Columns{
		ID:          "Post ID",
		AccountID:   "Account ID",
		Username:    "Account username",
		AccountName: "Account name",
		Description: "Description",
		PostType:    "Post type",
		Duration:    "Duration (sec)",
		Permalink:   "Permalink",
		PublishedAt: "Publish time",
		Views:       "Views",
		Reach:       "Reach",
		Likes:       "Likes",
		Shares:      "Shares",
		Follows:     "Follows",
		Comments:    "Comments",
		Saves:       "Saves",
	},
	DayNames:    [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	DateLayouts: []string{"1/2/2006 15:04", "1/2/2006 15:04:05", "1/2/2006"},
	DefaultType: "Instagram reel",
}

// LocaleByName resolves a locale identifier; unknown names fall back to pt-BR.
func LocaleByName(name string) Locale {
	switch name {
	case "en", "en-US", "en_US":
		return LocaleEN
	default:
		return LocalePTBR
	}
}
