package engine

import (
	"strings"

	"github.com/mozillazg/go-pinyin"
)

// CityProfile is static reference data describing one city.
type CityProfile struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Emoji       string   `json:"emoji"`
	Aliases     []string `json:"aliases"`
	HotTopics   []string `json:"hot_topics"`
	Specialties []string `json:"specialties"`
}

var cityProfiles = []CityProfile{
	{"北京", "beijing", "🏛️", []string{"北京市", "帝都", "BJ"}, []string{"故宫", "三里屯", "后海", "798", "环球影城"}, []string{"烤鸭", "炸酱面", "豆汁儿", "卤煮"}},
	{"上海", "shanghai", "🌃", []string{"上海市", "魔都", "SH"}, []string{"外滩", "迪士尼", "武康路", "静安寺", "南京路"}, []string{"小笼包", "生煎", "本帮菜", "咖啡"}},
	{"广州", "guangzhou", "🌺", []string{"广州市", "羊城", "GZ"}, []string{"北京路", "沙面", "珠江夜游", "长隆"}, []string{"早茶", "肠粉", "烧腊", "糖水"}},
	{"深圳", "shenzhen", "🏙️", []string{"深圳市", "鹏城", "SZ"}, []string{"华强北", "世界之窗", "大梅沙", "深圳湾"}, []string{"潮汕美食", "海鲜", "茶饮"}},
	{"杭州", "hangzhou", "🌊", []string{"杭州市", "杭城"}, []string{"西湖", "灵隐寺", "西溪湿地", "河坊街"}, []string{"龙井茶", "东坡肉", "西湖醋鱼", "叫花鸡"}},
	{"成都", "chengdu", "🐼", []string{"成都市", "蓉城"}, []string{"春熙路", "宽窄巷子", "大熊猫基地", "锦里"}, []string{"火锅", "串串", "担担面", "兔头"}},
	{"重庆", "chongqing", "🌉", []string{"重庆市", "山城"}, []string{"洪崖洞", "解放碑", "磁器口", "长江索道"}, []string{"火锅", "小面", "酸辣粉", "毛血旺"}},
	{"南京", "nanjing", "🏯", []string{"南京市", "金陵"}, []string{"夫子庙", "玄武湖", "中山陵", "老门东"}, []string{"盐水鸭", "鸭血粉丝汤", "小笼包"}},
	{"武汉", "wuhan", "🌸", []string{"武汉市", "江城"}, []string{"黄鹤楼", "户部巷", "东湖", "光谷"}, []string{"热干面", "豆皮", "武昌鱼", "精武鸭脖"}},
	{"西安", "xian", "🏰", []string{"西安市", "长安"}, []string{"兵马俑", "大雁塔", "回民街", "城墙"}, []string{"肉夹馍", "凉皮", "羊肉泡馍", "biangbiang面"}},
	{"苏州", "suzhou", "🏡", []string{"苏州市", "姑苏"}, []string{"拙政园", "虎丘", "平江路", "周庄"}, []string{"苏式面", "蟹壳黄", "糕团", "阳澄湖大闸蟹"}},
	{"长沙", "changsha", "⭐", []string{"长沙市", "星城"}, []string{"橘子洲", "岳麓山", "太平老街", "五一广场"}, []string{"臭豆腐", "糖油粑粑", "口味虾", "茶颜悦色"}},
	{"厦门", "xiamen", "🏝️", []string{"厦门市", "鹭岛"}, []string{"鼓浪屿", "曾厝垵", "中山路", "环岛路"}, []string{"沙茶面", "海蛎煎", "土笋冻", "花生汤"}},
	{"青岛", "qingdao", "🍺", []string{"青岛市", "岛城"}, []string{"栈桥", "八大关", "崂山", "金沙滩"}, []string{"青岛啤酒", "海鲜", "蛤蜊", "鲅鱼饺子"}},
	{"三亚", "sanya", "🏖️", []string{"三亚市"}, []string{"亚龙湾", "天涯海角", "蜈支洲岛", "南山寺"}, []string{"海鲜", "椰子鸡", "抱罗粉", "清补凉"}},
	{"丽江", "lijiang", "🏔️", []string{"丽江市", "丽江古城"}, []string{"丽江古城", "玉龙雪山", "束河古镇", "泸沽湖"}, []string{"纳西烤肉", "丽江粑粑", "鸡豆凉粉"}},
	{"大理", "dali", "🌅", []string{"大理市", "大理古城"}, []string{"洱海", "大理古城", "双廊", "苍山"}, []string{"乳扇", "饵丝", "砂锅鱼", "喜洲粑粑"}},
}

// TrendingSampleCities are the cities sampled when ranking cities by topic.
var TrendingSampleCities = []string{"上海", "北京", "杭州", "成都", "深圳", "广州"}

// cityIndex maps every accepted spelling of a city to its profile index.
var cityIndex = buildCityIndex()

func buildCityIndex() map[string]int {
	args := pinyin.NewArgs()
	index := make(map[string]int)
	add := func(key string, i int) {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return
		}
		if _, taken := index[key]; !taken {
			index[key] = i
		}
	}

	// Canonical names and slugs first so they always win.
	for i, c := range cityProfiles {
		add(c.Name, i)
		add(c.Slug, i)
	}
	for i, c := range cityProfiles {
		for _, a := range c.Aliases {
			add(a, i)
		}
		add(strings.Join(pinyin.LazyConvert(c.Name, &args), ""), i)
	}
	return index
}

// Cities returns a copy of every city profile in display order.
func Cities() []CityProfile {
	out := make([]CityProfile, len(cityProfiles))
	for i := range cityProfiles {
		out[i] = cloneProfile(cityProfiles[i])
	}
	return out
}

// LookupCity resolves a Chinese name, alias, slug or pinyin spelling.
func LookupCity(name string) (CityProfile, bool) {
	i, ok := cityIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return CityProfile{}, false
	}
	return cloneProfile(cityProfiles[i]), true
}

func cloneProfile(c CityProfile) CityProfile {
	c.Aliases = append([]string(nil), c.Aliases...)
	c.HotTopics = append([]string(nil), c.HotTopics...)
	c.Specialties = append([]string(nil), c.Specialties...)
	return c
}
