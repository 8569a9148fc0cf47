package catalog

import "strings"

// Rule: fragment nazwy (małymi literami) -> kategoria.
type Rule struct {
	Keyword  string
	Category string
}

// Classifier przypisuje kategorię po pierwszym pasującym fragmencie nazwy.
type Classifier struct {
	rules    []Rule
	fallback string
}

const FallbackCategory = "Разное"

func NewClassifier(rules []Rule, fallback string) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if fallback == "" {
		fallback = FallbackCategory
	}
	norm := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" {
			continue
		}
		norm = append(norm, Rule{Keyword: kw, Category: r.Category})
	}
	return &Classifier{rules: norm, fallback: fallback}
}

func (c *Classifier) Classify(name string) string {
	n := strings.ToLower(name)
	for _, r := range c.rules {
		if strings.Contains(n, r.Keyword) {
			return r.Category
		}
	}
	return c.fallback
}

func (c *Classifier) Fallback() string { return c.fallback }

// DefaultRules: konkretne frazy przed ogólnymi rdzeniami (kolejność ma znaczenie).
func DefaultRules() []Rule {
	return []Rule{
		{"масляный фильтр", "Фильтры"},
		{"воздушный фильтр", "Фильтры"},
		{"топливный фильтр", "Фильтры"},
		{"салонный фильтр", "Фильтры"},
		{"фильтр", "Фильтры"},

		{"тормоз", "Тормозная система"},
		{"колодк", "Тормозная система"},
		{"суппорт", "Тормозная система"},
		{"диск сцеплени", "Трансмиссия"},
		{"диск", "Тормозная система"},

		{"сцеплени", "Трансмиссия"},
		{"корзин", "Трансмиссия"},
		{"кпп", "Трансмиссия"},
		{"коробк", "Трансмиссия"},
		{"шрус", "Трансмиссия"},
		{"привод", "Трансмиссия"},

		{"амортизатор", "Подвеска"},
		{"пружин", "Подвеска"},
		{"стойк", "Подвеска"},
		{"рычаг", "Подвеска"},
		{"сайлентблок", "Подвеска"},
		{"шаровая", "Подвеска"},
		{"опора", "Подвеска"},
		{"втулк", "Подвеска"},
		{"подшипник", "Подвеска"},

		{"свеч", "Система зажигания"},
		{"катушк", "Система зажигания"},
		{"зажиган", "Система зажигания"},

		{"рулев", "Рулевое управление"},
		{"рейка", "Рулевое управление"},
		{"наконечник", "Рулевое управление"},
		{"тяга", "Рулевое управление"},

		{"бензонасос", "Топливная система"},
		{"форсунк", "Топливная система"},
		{"инжектор", "Топливная система"},
		{"топлив", "Топливная система"},

		{"радиатор", "Система охлаждения"},
		{"термостат", "Система охлаждения"},
		{"помпа", "Система охлаждения"},
		{"насос", "Система охлаждения"},
		{"вентилятор", "Система охлаждения"},
		{"антифриз", "Система охлаждения"},

		{"ремень", "Двигатель"},
		{"ролик", "Двигатель"},
		{"натяжитель", "Двигатель"},
		{"прокладк", "Двигатель"},
		{"поршен", "Двигатель"},
		{"кольц", "Двигатель"},
		{"вкладыш", "Двигатель"},
		{"клапан", "Двигатель"},

		{"масло", "Масла и жидкости"},
		{"жидкост", "Масла и жидкости"},

		{"генератор", "Электрика"},
		{"стартер", "Электрика"},
		{"аккумулятор", "Электрика"},
		{"датчик", "Электрика"},
		{"лампа", "Освещение"},
		{"фара", "Освещение"},
		{"фонарь", "Освещение"},

		{"глушител", "Выхлопная система"},
		{"катализатор", "Выхлопная система"},
		{"выхлоп", "Выхлопная система"},

		{"бампер", "Кузов"},
		{"крыло", "Кузов"},
		{"капот", "Кузов"},
		{"зеркал", "Кузов"},
		{"стекло", "Кузов"},
		{"дворник", "Кузов"},
	}
}
