package keyword

import "strings"

// commonEnglish is a compact list of everyday English vocabulary used to
// judge whether a sub-word part needs boosting. It intentionally skews
// toward words that show up in dictated prose and UI text; anything absent
// is treated as jargon worth boosting.
const commonEnglish = `
the be to of and a in that have i it for not on with he as you do at this
but his by from they we say her she or an will my one all would there their
what so up out if about who get which go me when make can like time no just
him know take people into year your good some could them see other than then
now look only come its over think also back after use two how our work first
well way even new want because any these give day most us is was are were
been has had did said make may should am might must shall dictate note word
words text speech voice sound audio letter sentence paragraph write written
writing read reading reads speak speaking spoken talk talking listen hear
open close start stop end begin finish pause resume play record recording
save load delete remove add insert copy paste cut undo redo file files
folder document documents page pages line lines name names title body
email mail message messages send sent receive reply forward draft
meeting call phone number numbers date dates today tomorrow yesterday
morning afternoon evening night week month months hour hours minute minutes
second seconds home house office school city country world hello goodbye
please thanks thank sorry yes no okay maybe sure right wrong true false
big small large little long short high low old young early late fast slow
hot cold warm cool light dark easy hard soft loud quiet happy sad angry
great nice bad better best worse worst many much more less few little
red green blue white black yellow brown orange purple gray
man woman child children boy girl friend family mother father parent
water food drink eat ate dinner lunch breakfast coffee tea bread milk
dog cat bird fish tree flower grass sun moon star sky rain snow wind
car bus train plane boat road street bridge door window room floor wall
table chair bed desk book pen paper pencil computer screen keyboard mouse
hand head eye ear nose mouth arm leg foot feet body heart mind
run running walk walking jump sit stand sleep wake move turn push pull
hold carry bring keep leave left put set place find found lose lost
buy sell pay cost price money dollar cent free cheap expensive
help ask answer question tell told show shown learn teach study
play game sport music song dance art picture photo movie show
love hate like liked want need hope wish feel felt seem seemed
live lived life dead die death born grow grew change changed
come came go went gone get got become became turn turned
one two three four five six seven eight nine ten hundred thousand million
first second third next last before after during while until since
here there where everywhere nowhere somewhere anywhere
always never sometimes often usually rarely again once twice
very too quite rather really almost nearly about around
and or but nor yet so both either neither each every any some none
under over between among through across along behind beside near far
north south east west top bottom front side middle center edge corner
`

var englishWords = buildWordSet(commonEnglish)

func buildWordSet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(raw) {
		set[w] = struct{}{}
	}
	return set
}

func isEnglishWord(part string) bool {
	_, ok := englishWords[strings.ToLower(part)]
	return ok
}
