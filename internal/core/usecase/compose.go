package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
)

// ReplyComposer turns a classified letter into a drafted bank reply. The
// system prompt comes from configuration; the user prompt carries the letter
// type, style guidance and the extracted facts so the model does not invent
// details.
type ReplyComposer struct {
	generator    ports.ReplyGenerator
	systemPrompt string
}

func NewReplyComposer(generator ports.ReplyGenerator, systemPrompt string) *ReplyComposer {
	return &ReplyComposer{
		generator:    generator,
		systemPrompt: strings.TrimSpace(systemPrompt),
	}
}

func (c *ReplyComposer) Compose(ctx context.Context, letterType domain.LetterType, fields domain.ExtractedFields, text string) (string, error) {
	answer, err := c.generator.Complete(ctx, c.systemPrompt, buildUserPrompt(letterType, fields, text))
	if err != nil {
		return "", wrapGenerationError(err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", domain.WrapError(domain.ErrGenerationFailed, "compose reply", fmt.Errorf("empty completion"))
	}
	return answer, nil
}

func (c *ReplyComposer) ComposeStream(ctx context.Context, letterType domain.LetterType, fields domain.ExtractedFields, text string, emit func(string) error) error {
	err := c.generator.CompleteStream(ctx, c.systemPrompt, buildUserPrompt(letterType, fields, text), emit)
	if err != nil {
		return wrapGenerationError(err)
	}
	return nil
}

func wrapGenerationError(err error) error {
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	return domain.WrapError(domain.ErrGenerationFailed, "compose reply", err)
}

func buildUserPrompt(letterType domain.LetterType, fields domain.ExtractedFields, text string) string {
	return fmt.Sprintf(`ТИП ПИСЬМА: %s

%s

ИЗВЛЕЧЕННЫЕ ПОЛЯ ИЗ ВХОДЯЩЕГО ПИСЬМА:
%s

ТЕКСТ ВХОДЯЩЕГО ПИСЬМА:
%s

ЗАДАЧА:
Сгенерируй официальное деловое письмо банка, которое:
1. Соответствует официальному уровню деловой переписки
2. Адаптировано под тип письма (%s)
3. Исключает юридические ошибки
4. Соблюдает корпоративный стиль банка
5. Использует извлеченные поля точно как указано
6. Имеет правильную структуру делового письма

ВАЖНО:
- Не выдумывай информацию, которой нет во входящем письме
- Используй только указанные даты, номера договоров, суммы
- Соблюдай профессиональный тон банка
- Избегай юридических формулировок, которые могут создать риски`,
		strings.ToUpper(string(letterType)),
		styleGuidance(letterType),
		renderFields(fields),
		text,
		string(letterType),
	)
}

func renderFields(fields domain.ExtractedFields) string {
	if fields.IsEmpty() {
		return "Не найдено"
	}
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "Не найдено"
	}
	return string(data)
}

func styleGuidance(letterType domain.LetterType) string {
	switch letterType {
	case domain.TypeComplaint:
		return `СТИЛЬ ДЛЯ ОФИЦИАЛЬНОЙ ЖАЛОБЫ/ПРЕТЕНЗИИ:
- Извиняющийся и понимающий тон
- Признание проблемы и ответственности банка
- Конкретные шаги по решению проблемы
- Указание сроков рассмотрения и ответа
- Предложение компенсации или исправления ситуации (если уместно)
- Контактные данные для дальнейшего общения`
	case domain.TypeRegulatory:
		return `СТИЛЬ ДЛЯ РЕГУЛЯТОРНОГО ЗАПРОСА:
- Официальный, формальный стиль
- Ссылки на нормативные акты и регламенты
- Точные юридические формулировки
- Соблюдение требований регулятора
- Структурированное изложение информации
- Указание на соответствие требованиям`
	case domain.TypePartnership:
		return `СТИЛЬ ДЛЯ ПАРТНЕРСКОГО ПРЕДЛОЖЕНИЯ:
- Деловой, заинтересованный тон
- Профессиональная оценка предложения
- Указание на процедуры рассмотрения
- Предложение дальнейших шагов (встреча, переговоры)
- Благодарность за предложение
- Контактные данные ответственного лица`
	case domain.TypeDocumentRequest:
		return `СТИЛЬ ДЛЯ ЗАПРОСА ИНФОРМАЦИИ/ДОКУМЕНТОВ:
- Четкий, структурированный ответ
- Указание конкретных документов и сроков предоставления
- Способы получения документов
- Требования к оформлению (если есть)
- Контактные данные для уточнений
- Благодарность за обращение`
	case domain.TypeNotification:
		return `СТИЛЬ ДЛЯ УВЕДОМЛЕНИЯ/ИНФОРМАЦИИ:
- Информативный, нейтральный стиль
- Четкое изложение фактов
- Структурированная подача информации
- Важные детали выделены
- Контактные данные для вопросов
- Профессиональный тон`
	case domain.TypeApprovalRequest:
		return `СТИЛЬ ДЛЯ ЗАПРОСА НА ОДОБРЕНИЕ/СОГЛАСОВАНИЕ:
- Профессиональный деловой тон
- Четкость и конкретность в изложении
- Указание на важность и обоснованность запроса
- Готовность предоставить дополнительную информацию
- Указание сроков рассмотрения
- Вежливое обращение`
	default:
		return `СТИЛЬ ДЛЯ ОБЩЕГО ПИСЬМА:
- Профессиональный деловой тон
- Четкость и конкретность
- Вежливое обращение
- Структурированное изложение
- Готовность к сотрудничеству`
	}
}
