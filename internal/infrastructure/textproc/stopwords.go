package textproc

// Russian function words dropped before vectorization.
var russianStopWords = map[string]struct{}{
	"и": {}, "в": {}, "во": {}, "не": {}, "что": {}, "он": {}, "на": {}, "я": {},
	"с": {}, "со": {}, "как": {}, "а": {}, "то": {}, "все": {}, "она": {}, "так": {},
	"его": {}, "но": {}, "да": {}, "ты": {}, "к": {}, "у": {}, "же": {}, "вы": {},
	"за": {}, "бы": {}, "по": {}, "только": {}, "ее": {}, "мне": {}, "было": {},
	"вот": {}, "от": {}, "меня": {}, "еще": {}, "нет": {}, "о": {}, "из": {},
	"ему": {}, "теперь": {}, "когда": {}, "даже": {}, "ну": {}, "вдруг": {},
	"ли": {}, "если": {}, "уже": {}, "или": {}, "ни": {}, "быть": {}, "был": {},
	"него": {}, "до": {}, "вас": {}, "нибудь": {}, "опять": {}, "уж": {}, "вам": {},
	"ведь": {}, "там": {}, "потом": {}, "себя": {}, "ничего": {}, "ей": {},
	"может": {}, "они": {}, "тут": {}, "где": {}, "есть": {},
}

func isStopWord(token string) bool {
	_, ok := russianStopWords[token]
	return ok
}
