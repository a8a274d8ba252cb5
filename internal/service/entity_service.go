// Package service 包含了应用的业务逻辑层。
package service

import (
	"regexp"
	"strings"
	"unicode"

	"pitwall-go/internal/model"
	"pitwall-go/internal/repository"
	"pitwall-go/pkg/log"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EntityService 把用户的自由文本归一化为规范的车手/分站标识符。
// 未命中是正常结果而非错误，调用方需要自行处理 false 分支。
type EntityService interface {
	NormalizeDriver(input string) (string, bool)
	NormalizeRace(input string) (string, bool)
	KnownDriverCodes() []string
	KnownRaceIDs() []string
	ListDrivers() ([]model.Driver, error)
	ListRaces() ([]model.Race, error)
}

type entityService struct {
	catalogRepo repository.CatalogRepository
}

// NewEntityService 创建一个新的 EntityService 实例。
func NewEntityService(catalogRepo repository.CatalogRepository) EntityService {
	return &entityService{catalogRepo: catalogRepo}
}

var (
	raceIDPattern = regexp.MustCompile(`^\d{4}_[a-z0-9_]+$`)
	yearPattern   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// cleanText 去掉变音符号和标点、折叠空白并转小写。
// 下划线保留，规范 ID（如 2024_gbr）清洗后保持原样。
func cleanText(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, input)
	if err != nil {
		stripped = input
	}

	var b strings.Builder
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// 标点替换为空格，避免 "Norris,Lando" 粘连
			b.WriteRune(' ')
		}
	}
	return strings.TrimSpace(spacePattern.ReplaceAllString(b.String(), " "))
}

// NormalizeDriver 依次尝试：三字母缩写精确匹配（忽略大小写）、
// 全名精确匹配、全名子串匹配、末位姓氏 token 匹配。
// 多个候选同样匹配时按目录顺序取第一个。
func (s *entityService) NormalizeDriver(input string) (string, bool) {
	cleaned := cleanText(input)
	if cleaned == "" {
		return "", false
	}

	drivers, err := s.catalogRepo.FindAllDrivers()
	if err != nil {
		log.Errorf("[EntityService] 读取车手目录失败: %v", err)
		return "", false
	}

	for _, d := range drivers {
		if cleaned == strings.ToLower(d.Code) {
			return d.Code, true
		}
	}

	for _, d := range drivers {
		if cleaned == cleanText(d.FullName) {
			return d.Code, true
		}
	}

	for _, d := range drivers {
		if strings.Contains(cleanText(d.FullName), cleaned) {
			return d.Code, true
		}
	}

	// 姓氏启发：取输入与全名各自的最后一个 token 比较
	tokens := strings.Fields(cleaned)
	surname := tokens[len(tokens)-1]
	for _, d := range drivers {
		nameTokens := strings.Fields(cleanText(d.FullName))
		if len(nameTokens) > 0 && nameTokens[len(nameTokens)-1] == surname {
			return d.Code, true
		}
	}

	return "", false
}

// NormalizeRace 将自由文本解析为规范分站 ID。
// 已是 year_slug 形式的输入原样接受；否则剥离年份和
// "grand prix"/"gp" 等通用词后对分站名称做子串匹配，
// 提取到年份时只在该赛季内匹配。
func (s *entityService) NormalizeRace(input string) (string, bool) {
	cleaned := cleanText(input)
	if cleaned == "" {
		return "", false
	}

	if raceIDPattern.MatchString(cleaned) {
		return cleaned, true
	}

	year := 0
	if m := yearPattern.FindString(cleaned); m != "" {
		year = atoiYear(m)
	}
	needle := yearPattern.ReplaceAllString(cleaned, " ")
	needle = strings.ReplaceAll(needle, "grand prix", " ")
	needle = spacePattern.ReplaceAllString(needle, " ")
	needle = strings.TrimSpace(needle)
	needle = trimWord(needle, "gp")
	if needle == "" {
		return "", false
	}

	races, err := s.catalogRepo.FindAllRaces()
	if err != nil {
		log.Errorf("[EntityService] 读取分站目录失败: %v", err)
		return "", false
	}

	for _, r := range races {
		if year != 0 && r.Season != year {
			continue
		}
		if strings.Contains(cleanText(r.Name), needle) {
			return r.RaceID, true
		}
	}

	return "", false
}

// KnownDriverCodes 返回目录中全部规范车手缩写。
func (s *entityService) KnownDriverCodes() []string {
	drivers, err := s.catalogRepo.FindAllDrivers()
	if err != nil {
		log.Errorf("[EntityService] 读取车手目录失败: %v", err)
		return nil
	}
	codes := make([]string, 0, len(drivers))
	for _, d := range drivers {
		codes = append(codes, d.Code)
	}
	return codes
}

// KnownRaceIDs 返回目录中全部规范分站 ID。
func (s *entityService) KnownRaceIDs() []string {
	races, err := s.catalogRepo.FindAllRaces()
	if err != nil {
		log.Errorf("[EntityService] 读取分站目录失败: %v", err)
		return nil
	}
	ids := make([]string, 0, len(races))
	for _, r := range races {
		ids = append(ids, r.RaceID)
	}
	return ids
}

// ListDrivers 返回完整的车手目录（“有效选项”展示接口）。
func (s *entityService) ListDrivers() ([]model.Driver, error) {
	return s.catalogRepo.FindAllDrivers()
}

// ListRaces 返回完整的分站目录。
func (s *entityService) ListRaces() ([]model.Race, error) {
	return s.catalogRepo.FindAllRaces()
}

func atoiYear(s string) int {
	year := 0
	for _, r := range s {
		year = year*10 + int(r-'0')
	}
	return year
}

// trimWord 去掉独立出现的整词（如 "british gp" 里的 "gp"）。
func trimWord(s, word string) string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if f != word {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}
