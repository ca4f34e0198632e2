// Package flows holds the conversation tables served by the bridge.
package flows

import (
	"strings"

	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation"
)

type lang = conversation.Language

var (
	Menu        = []string{"Margherita", "Pepperoni", "Quattro Formaggi", "Hawaii", "Vegetariana", "Tonno"}
	SizeOptions = []string{"25cm", "30cm", "35cm"}
)

type yesNoParams struct {
	Response string `json:"response" jsonschema:"enum=yes,enum=no" jsonschema_description:"Whether the caller agreed."`
}

type languageParams struct {
	Language string `json:"language" jsonschema:"enum=en,enum=tr,enum=nl" jsonschema_description:"Language the caller wants to speak: en, tr or nl."`
}

type intentParams struct {
	Intent string `json:"intent" jsonschema:"enum=order,enum=status" jsonschema_description:"order to place a new order, status to check an existing one."`
}

type deliveryParams struct {
	Response string `json:"response" jsonschema:"enum=pickup,enum=delivery" jsonschema_description:"How the caller wants to receive the order."`
}

type addressParams struct {
	City        string `json:"city" jsonschema_description:"City name."`
	Zipcode     string `json:"zipcode" jsonschema_description:"Postal code."`
	HouseNumber string `json:"house_number" jsonschema_description:"House number, with addition if any."`
	FullAddress string `json:"full_address" jsonschema_description:"Street, house number, zipcode and city as one line."`
	Understood  bool   `json:"understood" jsonschema_description:"False if the address could not be understood."`
}

type itemsParams struct {
	PizzaItems string `json:"pizza_items" jsonschema_description:"Ordered pizzas with quantities, e.g. 2 Margherita, 1 Pepperoni. Only items from: {menu}."`
	Understood bool   `json:"understood" jsonschema_description:"False if no item matched the menu."`
}

type sizeParams struct {
	PizzaSizes  string `json:"pizza_sizes" jsonschema_description:"Size per ordered pizza, e.g. 2 Margherita 25cm. Sizes: {size_options}."`
	Valid       bool   `json:"valid" jsonschema_description:"False if a size is missing or not one of {size_options}."`
	SizeProblem string `json:"size_problem,omitempty" jsonschema_description:"Short explanation of what is wrong with the sizes."`
}

type noteParams struct {
	Note       string `json:"note" jsonschema_description:"Order note in the caller's words."`
	Understood bool   `json:"understood" jsonschema_description:"False if the note could not be understood."`
}

// Order is the pizza ordering flow: language selection, intent, delivery
// method, address, items, sizes, confirmation and an optional note.
func Order() *conversation.Flow {
	return conversation.MustFlow("language_selection",
		conversation.State{
			Name: "language_selection",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'Which language would you like to speak: English, Turkish or Dutch?'",
			},
			Tools:        []conversation.Tool{conversation.NewTool("select_language", "Record the language the caller chose.", languageParams{})},
			Verification: &conversation.Verification{Predicate: "language", Outcomes: map[string]string{"selected": "entry", "unknown": "language_selection"}},
		},
		conversation.State{
			Name: "entry",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Say: 'Welcome to Pizzadam! Would you like to place an order or check the status of an existing one?'",
				conversation.LanguageTurkish: "Söyle: 'Pizzadam'a hoş geldiniz! Sipariş mi vermek istiyorsunuz, yoksa mevcut siparişinizi mi kontrol etmek istiyorsunuz?'",
				conversation.LanguageDutch:   "Zeg: 'Welkom bij Pizzadam! Wilt u een bestelling plaatsen of de status van een bestaande bestelling controleren?'",
			},
			Tools:        []conversation.Tool{conversation.NewTool("choose_intent", "Record whether the caller wants to order or check an order.", intentParams{})},
			Verification: &conversation.Verification{Predicate: "order_intent", Outcomes: map[string]string{"order": "pickup_or_delivery", "status": "status_unavailable"}},
			Fallback:     "entry",
		},
		conversation.State{
			Name: "status_unavailable",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Say: 'We could not find an order for {caller_number}. Do you want to return to the main menu?'",
				conversation.LanguageTurkish: "Söyle: '{caller_number} numarası için sipariş bulamadık. Ana menüye dönmek ister misiniz?'",
				conversation.LanguageDutch:   "Zeg: 'We konden geen bestelling vinden voor {caller_number}. Wilt u terug naar het hoofdmenu?'",
			},
			Tools:       []conversation.Tool{conversation.NewTool("status_unavailable", "Caller answers whether to return to the main menu.", yesNoParams{})},
			Transitions: map[string]string{"yes": "entry", "no": "end_call"},
			Previous:    "entry",
		},
		conversation.State{
			Name: "pickup_or_delivery",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'Will you pick it up or should we deliver it?'",
				conversation.LanguageTurkish: "Sor: 'Siparişi gelip mi alacaksınız, yoksa adresinize mi getirelim?'",
				conversation.LanguageDutch:   "Vraag: 'Haalt u het zelf op of zullen we het bezorgen?'",
			},
			Tools:       []conversation.Tool{conversation.NewTool("choose_delivery_type", "Record pickup or delivery.", deliveryParams{})},
			Transitions: map[string]string{"pickup": "confirm_branch", "delivery": "ask_address"},
			Previous:    "entry",
		},
		conversation.State{
			Name: "ask_address",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'Can you share your city, zipcode and house number?'",
				conversation.LanguageTurkish: "Sor: 'Şehrinizi, posta kodunuzu ve ev numaranızı paylaşabilir misiniz?'",
				conversation.LanguageDutch:   "Vraag: 'Kunt u uw stad, postcode en huisnummer doorgeven?'",
			},
			Tools:        []conversation.Tool{conversation.NewTool("get_address", "Record the delivery address.", addressParams{})},
			Verification: &conversation.Verification{Predicate: "address", Outcomes: map[string]string{"true": "confirm_address", "false": "ask_address_failed"}},
			Fallback:     "ask_address_failed",
		},
		conversation.State{
			Name: "ask_address_failed",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Say: 'We could not understand your address. Would you like to pick the order up yourself?'",
				conversation.LanguageTurkish: "Söyle: 'Adresinizi anlayamadık. Siparişi kendiniz almak ister misiniz?'",
				conversation.LanguageDutch:   "Zeg: 'We konden uw adres niet begrijpen. Wilt u de bestelling zelf ophalen?'",
			},
			Tools:       []conversation.Tool{conversation.NewTool("address_failed", "Caller answers whether to pick up instead.", yesNoParams{})},
			Transitions: map[string]string{"yes": "confirm_branch", "no": "ask_address"},
		},
		conversation.State{
			Name: "confirm_address",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'We understood your address as {full_address}. Is that correct?'",
				conversation.LanguageTurkish: "Sor: 'Adresinizi {full_address} olarak anladık. Doğru mu?'",
				conversation.LanguageDutch:   "Vraag: 'Uw adres is {full_address}. Klopt dat?'",
			},
			Tools:       []conversation.Tool{conversation.NewTool("confirm_address", "Caller confirms the address {full_address}.", yesNoParams{})},
			Transitions: map[string]string{"yes": "ask_item", "no": "ask_address_failed"},
			Previous:    "ask_address",
		},
		conversation.State{
			Name: "confirm_branch",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'You will pick it up from our Sumatrastraat branch, right?'",
				conversation.LanguageTurkish: "Sor: 'Siparişi Sumatrastraat şubemizden alacaksınız, değil mi?'",
				conversation.LanguageDutch:   "Vraag: 'U haalt het op bij onze vestiging aan de Sumatrastraat, klopt dat?'",
			},
			Tools:       []conversation.Tool{conversation.NewTool("confirm_branch", "Caller confirms the pickup branch.", yesNoParams{})},
			Transitions: map[string]string{"yes": "ask_item", "no": "pickup_or_delivery"},
		},
		conversation.State{
			Name: "ask_item",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'What would you like to order?' The caller names pizzas and quantities. Only these pizzas exist: {menu}.",
				conversation.LanguageTurkish: "Sor: 'Ne sipariş etmek istersiniz?' Arayan pizza adlarını ve adetlerini söyler. Sadece şu pizzalar var: {menu}.",
				conversation.LanguageDutch:   "Vraag: 'Wat wilt u bestellen?' De beller noemt pizza's en aantallen. Alleen deze pizza's bestaan: {menu}.",
			},
			Tools:        []conversation.Tool{conversation.NewTool("get_order_items", "Record the ordered pizzas.", itemsParams{})},
			Verification: &conversation.Verification{Predicate: "menu", Outcomes: map[string]string{"true": "ask_size", "false": "ask_item"}},
			Fallback:     "entry",
		},
		conversation.State{
			Name: "ask_size",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Say: 'You ordered {pizza_items}. Please give the size of each pizza. Sizes are {size_options}.'",
				conversation.LanguageTurkish: "Söyle: 'Siparişiniz: {pizza_items}. Lütfen her pizza için boyut belirtin. Boyutlar: {size_options}.'",
				conversation.LanguageDutch:   "Zeg: 'U heeft {pizza_items} besteld. Geef de maat van elke pizza. Maten zijn {size_options}.'",
			},
			Tools:        []conversation.Tool{conversation.NewTool("ask_size_items", "Record sizes for {pizza_items}.", sizeParams{})},
			Verification: &conversation.Verification{Predicate: "order_size", Outcomes: map[string]string{"true": "confirm_order", "false": "ask_size_failed"}},
			Fallback:     "ask_size_failed",
		},
		conversation.State{
			Name: "ask_size_failed",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Say: '{size_problem}. Could you give the sizes again? Sizes are {size_options}.'",
				conversation.LanguageTurkish: "Söyle: '{size_problem}. Boyutları tekrar söyler misiniz? Boyutlar: {size_options}.'",
				conversation.LanguageDutch:   "Zeg: '{size_problem}. Kunt u de maten opnieuw geven? Maten zijn {size_options}.'",
			},
			Tools:        []conversation.Tool{conversation.NewTool("ask_size_items", "Record sizes for {pizza_items}.", sizeParams{})},
			Verification: &conversation.Verification{Predicate: "order_size", Outcomes: map[string]string{"true": "confirm_order", "false": "ask_size_failed"}},
			Previous:     "ask_item",
		},
		conversation.State{
			Name: "confirm_order",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'You ordered {pizza_items} with sizes {pizza_sizes}. Do you confirm?'",
				conversation.LanguageTurkish: "Sor: 'Siparişiniz {pizza_items}, boyutlar {pizza_sizes}. Onaylıyor musunuz?'",
				conversation.LanguageDutch:   "Vraag: 'U heeft {pizza_items} besteld in de maten {pizza_sizes}. Bevestigt u dat?'",
			},
			Tools:       []conversation.Tool{conversation.NewTool("confirm_order", "Caller confirms the order.", yesNoParams{})},
			Transitions: map[string]string{"yes": "ask_notes", "no": "ask_item"},
		},
		conversation.State{
			Name: "ask_notes",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'Do you have an order note to add?' Expect yes or no.",
				conversation.LanguageTurkish: "Sor: 'Eklemek istediğiniz bir sipariş notu var mı?' Evet veya hayır bekle.",
				conversation.LanguageDutch:   "Vraag: 'Wilt u een notitie bij de bestelling toevoegen?' Verwacht ja of nee.",
			},
			Tools:       []conversation.Tool{conversation.NewTool("ask_notes", "Caller answers whether to add a note.", yesNoParams{})},
			Transitions: map[string]string{"yes": "get_order_note", "no": "end_call"},
		},
		conversation.State{
			Name: "get_order_note",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Say: 'Please tell me your order note.'",
				conversation.LanguageTurkish: "Söyle: 'Lütfen sipariş notunuzu söyleyin.'",
				conversation.LanguageDutch:   "Zeg: 'Vertel me uw bestelnotitie.'",
			},
			Tools:        []conversation.Tool{conversation.NewTool("get_order_note", "Record the order note.", noteParams{})},
			Verification: &conversation.Verification{Predicate: "note", Outcomes: map[string]string{"true": "confirm_note", "false": "ask_notes"}},
			Fallback:     "ask_notes",
		},
		conversation.State{
			Name: "confirm_note",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Ask: 'Your order note is {note}. Is that correct?'",
				conversation.LanguageTurkish: "Sor: 'Sipariş notunuz {note}. Doğru mu?'",
				conversation.LanguageDutch:   "Vraag: 'Uw bestelnotitie is {note}. Klopt dat?'",
			},
			Tools:       []conversation.Tool{conversation.NewTool("confirm_note", "Caller confirms the note {note}.", yesNoParams{})},
			Transitions: map[string]string{"yes": "end_call", "no": "get_order_note"},
		},
		conversation.State{
			Name: "end_call",
			Prompts: map[lang]string{
				conversation.LanguageEnglish: "Say: 'Thank you! Have a great day!' Then call end_call.",
				conversation.LanguageTurkish: "Söyle: 'Teşekkürler, iyi günler!' Sonra end_call çağır.",
				conversation.LanguageDutch:   "Zeg: 'Dank u wel! Fijne dag verder!' Roep daarna end_call aan.",
			},
			Tools:       []conversation.Tool{conversation.NewTool(conversation.ToolEndCall, "Hang up after saying goodbye.", nil)},
			Transitions: map[string]string{"done": conversation.Terminal},
		},
	)
}

// OrderPredicates resolves the verification steps of Order from the
// outcome the model reports in the tool arguments.
func OrderPredicates() map[string]conversation.Predicate {
	return map[string]conversation.Predicate{
		"order_intent": conversation.ArgumentPredicate("intent"),
		"address":      conversation.ArgumentPredicate("understood"),
		"menu":         conversation.ArgumentPredicate("understood"),
		"order_size":   conversation.ArgumentPredicate("valid"),
		"note":         conversation.ArgumentPredicate("understood"),
	}
}

// OrderParams are the parameters Order expects before the first render.
func OrderParams(callerNumber string) map[string]string {
	return map[string]string{
		"caller_number": callerNumber,
		"menu":          strings.Join(Menu, ", "),
		"size_options":  strings.Join(SizeOptions, ", "),
		"size_problem":  "Some sizes were missing",
	}
}
