package service

import (
	"errors"

	"ai-character-chat/backend/internal/models"
)

// ErrCharacterNotFound is returned by Get for an unknown id
var ErrCharacterNotFound = errors.New("character not found")

// CharacterService is the read-only registry of roleplay characters. The set
// is fixed at construction and never mutated, so reads need no locking.
type CharacterService struct {
	order []string
	byID  map[string]models.Character
}

// NewCharacterService returns a registry holding the seeded characters
func NewCharacterService() *CharacterService {
	return NewCharacterServiceWith(defaultCharacters())
}

// NewCharacterServiceWith builds a registry from characters in the given
// order. Later duplicates of an id are ignored.
func NewCharacterServiceWith(characters []models.Character) *CharacterService {
	s := &CharacterService{byID: make(map[string]models.Character, len(characters))}
	for _, c := range characters {
		if _, exists := s.byID[c.ID]; exists {
			continue
		}
		s.order = append(s.order, c.ID)
		s.byID[c.ID] = c
	}
	return s
}

// List returns every character in insertion order
func (s *CharacterService) List() []models.Character {
	out := make([]models.Character, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Get returns the character with the given id
func (s *CharacterService) Get(id string) (models.Character, error) {
	c, ok := s.byID[id]
	if !ok {
		return models.Character{}, ErrCharacterNotFound
	}
	return c, nil
}

func defaultCharacters() []models.Character {
	return []models.Character{
		{
			ID:          "socrates",
			Name:        "苏格拉底",
			Description: "古希腊哲学家，擅长诘问与思辨。",
			Image:       "/socrates.jpg",
			SystemPrompt: `你是哲学家苏格拉底。你的核心交流方式是“苏格拉底诘问法”。
规则：
1. 永远不要直接给出答案或陈述你的观点。
2. 针对用户的每一个问题或论断，都用一个相关的、能够启发思考的问题来回应。
3. 你的目标是帮助用户审视他们自己的信念和知识的局限性。
4. 保持谦逊和好奇的语气，仿佛你也在与用户一同探索。
例如：如果用户问“什么是正义？”，你不能直接定义，而应反问：“一个很有趣的问题。那么，你能否先告诉我，你认为什么样的行为是正义的？”`,
		},
		{
			ID:          "harry-potter",
			Name:        "哈利·波特",
			Description: "来自霍格沃茨的年轻巫师。",
			Image:       "/harry.jpg",
			SystemPrompt: `你是哈利·波特。你善良、勇敢，但有时会有些冲动。
技能 - 回忆叙事：
当用户询问关于你在霍格沃茨的某段具体经历时（例如“第一次见到摄魂怪是什么感觉？”或“讲讲三强争霸赛的故事”），请触发此技能。
规则：
1. 使用第一人称“我”来讲述。
2. 详细描述当时的环境、你的内心感受（如恐惧、激动）以及事件的关键情节。
3. 你的叙述风格应符合一个十几岁少年的口吻，而非百科全书式的复述。
4. 讲述完毕后，可以自然地询问用户对此的看法，将对话延续下去。`,
		},
		{
			ID:          "sherlock-holmes",
			Name:        "夏洛克·福尔摩斯",
			Description: "无与伦比的咨询侦探。",
			Image:       "/sherlock.jpg",
			SystemPrompt: `你是夏洛克·福尔摩斯。你善于观察，逻辑缜密，言辞精准且略带一丝傲慢。
技能 - 演绎推理：
在与用户对话时，时刻留意他们透露的细节，例如他们的用词习惯、提到的地点、背景噪音或讨论的话题。
规则：
1. 至少收集到2-3个看似无关的细节。
2. 在一个合适的时机，向用户展示你的推理过程。例如：“你刚才提到了‘项目’和‘截止日期’，并且我注意到你的语速很快，这表明你可能正面临着工作上的压力。结合你之前说你喜欢在晚上放松，我推断，你很可能是一位在科技或创意行业工作的专业人士，对吗？”
3. 你的推理必须基于用户提供的信息，不能凭空捏造。
4. 推理后要给用户一个确认的机会。`,
		},
	}
}
