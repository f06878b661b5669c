// Package messages holds every user-visible string in one table keyed
// by (message id, locale), so handlers never branch on language inline.
// Strings are Telegram HTML.
package messages

import (
	"fmt"
	"regexp"
)

type Locale string

const (
	English Locale = "en"
	Burmese Locale = "my"
)

type ID string

const (
	Welcome        ID = "welcome"
	Help           ID = "help"
	Stats          ID = "stats"
	RateLimited    ID = "rate_limited"
	RateLimitAlert ID = "rate_limit_alert"
	InvalidLink    ID = "invalid_link"
	Usage          ID = "usage"
	Processing     ID = "processing"
	ResolveFailed  ID = "resolve_failed"
	NoMedia        ID = "no_media"
	PreviewCaption ID = "preview_caption"
	ContentVideo   ID = "content_video"
	ContentPhotos  ID = "content_photos"
	ContentOther   ID = "content_other"
	ButtonVideo    ID = "button_video"
	ButtonAudio    ID = "button_audio"
	ButtonPhotos   ID = "button_photos"
	Downloading    ID = "downloading"
	DownloadFailed ID = "download_failed"
	Delivered      ID = "delivered"
	MediaCaption   ID = "media_caption"
	SendFailed     ID = "send_failed"
	MenuExpired    ID = "menu_expired"
	DeliveryError  ID = "delivery_error"
)

var burmeseRange = regexp.MustCompile(`[\x{1000}-\x{109F}]`)

// Detect returns Burmese when the text contains Myanmar-script
// codepoints, English otherwise.
func Detect(text string) Locale {
	if burmeseRange.MatchString(text) {
		return Burmese
	}
	return English
}

// Catalog selects message templates for a locale. A pinned locale
// overrides detection; the zero value pins nothing.
type Catalog struct {
	pinned Locale
}

func New(pinned Locale) *Catalog {
	return &Catalog{pinned: pinned}
}

// Pick chooses the locale for one inbound event based on its text.
func (c *Catalog) Pick(text string) Locale {
	if c.pinned != "" {
		return c.pinned
	}
	return Detect(text)
}

// Get returns the template for id in loc, falling back to English.
func (c *Catalog) Get(loc Locale, id ID) string {
	if msg, ok := table[id][loc]; ok {
		return msg
	}
	return table[id][English]
}

// Getf formats the template for id in loc with args.
func (c *Catalog) Getf(loc Locale, id ID, args ...any) string {
	return fmt.Sprintf(c.Get(loc, id), args...)
}

var table = map[ID]map[Locale]string{
	Welcome: {
		English: "👋 Welcome to <b>TikTok Downloader Bot</b>!\n\n" +
			"🎬 <b>Highlights:</b>\n" +
			"• ✅ Videos without watermark\n" +
			"• 🎵 High quality MP3 audio\n" +
			"• 🖼️ Photo slideshows\n" +
			"• ⚡ Fast downloads\n\n" +
			"📝 <b>How to use:</b>\n" +
			"Just send a TikTok link!\n\n" +
			"🔧 <b>Commands:</b>\n" +
			"/start - About this bot\n" +
			"/help - Get help\n" +
			"/stats - Usage statistics",
		Burmese: "👋 <b>TikTok Downloader Bot</b> မှ ကြိုဆိုပါတယ်!\n\n" +
			"🎬 <b>စပါယ်ရှယ် ထူးခြားချက်:</b>\n" +
			"• ✅ Watermark မပါသော ဗီဒီယိုများ\n" +
			"• 🎵 အရည်အသွေးမြင့် MP3 အသံများ\n" +
			"• 🖼️ ဓာတ်ပုံ Slideshow များ\n" +
			"• ⚡ မြန်ဆန်သော Download နှုန်း\n\n" +
			"📝 <b>အသုံးပြုနည်း:</b>\n" +
			"TikTok link ကို ပေးပို့ရုံပါပဲ!\n\n" +
			"🔧 <b>Commands:</b>\n" +
			"/start - Bot အကြောင်း\n" +
			"/help - အကူအညီရယူရန်\n" +
			"/stats - အသုံးပြုမှုစာရင်း",
	},
	Help: {
		English: "📖 <b>How to use TikTok Downloader</b>\n\n" +
			"1. 📱 Copy a video link from the <b>TikTok app</b>\n" +
			"2. 🤖 Paste it to this <b>bot</b>\n" +
			"3. 📥 Pick a download format\n\n" +
			"🔗 <b>Supported link formats:</b>\n" +
			"• https://vm.tiktok.com/XXXXXX/\n" +
			"• https://vt.tiktok.com/XXXXXX/\n" +
			"• https://tiktok.com/@user/video/123456789\n\n" +
			"⚠️ <b>Notes:</b>\n" +
			"• Limited to 60 requests per hour\n" +
			"• Private videos cannot be downloaded\n" +
			"• Downloads may be slow depending on the server",
		Burmese: "📖 <b>TikTok Downloader အသုံးပြုနည်း</b>\n\n" +
			"1. 📱 <b>TikTok App</b> မှ video link ကို copy လုပ်ပါ\n" +
			"2. 🤖 <b>Bot</b> ထံသို့ paste လုပ်ပါ\n" +
			"3. 📥 Download format ကို ရွေးချယ်ပါ\n\n" +
			"🔗 <b>Supported Link Formats:</b>\n" +
			"• https://vm.tiktok.com/XXXXXX/\n" +
			"• https://vt.tiktok.com/XXXXXX/\n" +
			"• https://tiktok.com/@user/video/123456789\n\n" +
			"⚠️ <b>မှတ်ချက်များ:</b>\n" +
			"• တစ်နာရီလျှင် 60 ကြိမ်သာ အသုံးပြုနိုင်ပါသည်\n" +
			"• Private videos များကို ဒေါင်းလုပ်ဆွဲ၍မရပါ\n" +
			"• တစ်ခါတစ်ရံ ဆာဗာပေါ်မူတည်၍ ကြာနိုင်ပါသည်",
	},
	Stats: {
		English: "📊 <b>Usage statistics</b>\n\n" +
			"👤 <b>User ID:</b> <code>%d</code>\n" +
			"📥 <b>Used:</b> %d requests\n" +
			"📤 <b>Remaining:</b> %d requests\n" +
			"⏰ <b>Resets in:</b> 1 hour\n\n" +
			"⚡ <b>Bot Status:</b> Active",
		Burmese: "📊 <b>အသုံးပြုမှုစာရင်း</b>\n\n" +
			"👤 <b>User ID:</b> <code>%d</code>\n" +
			"📥 <b>အသုံးပြုပြီး:</b> %d ကြိမ်\n" +
			"📤 <b>ကျန်ရှိသည်:</b> %d ကြိမ်\n" +
			"⏰ <b>ပြန်လည်သတ်မှတ်ချိန်:</b> 1 နာရီ\n\n" +
			"⚡ <b>Bot Status:</b> Active",
	},
	RateLimited: {
		English: "❌ <b>Too many requests</b>\n\n" +
			"Please try again in 1 hour\n\n" +
			"📊 Only 60 requests per hour are allowed",
		Burmese: "❌ <b>အသုံးပြုမှုများလွန်းပါတယ်</b>\n\n" +
			"ကျေးဇူးပြု၍ 1 နာရီကြာပြီးမှ ထပ်ကြိုးစားပါ\n\n" +
			"📊 တစ်နာရီလျှင် 60 ကြိမ်သာ အသုံးပြုနိုင်ပါသည်",
	},
	RateLimitAlert: {
		English: "❌ Too many requests\n" +
			"Please try again in 1 hour",
		Burmese: "❌ အသုံးပြုမှုများလွန်းပါတယ်\n" +
			"ကျေးဇူးပြု၍ 1 နာရီကြာပြီးမှ ထပ်ကြိုးစားပါ",
	},
	InvalidLink: {
		English: "❌ <b>Invalid TikTok link</b>\n\n" +
			"Please send a valid TikTok link.\n\n" +
			"✅ <b>Examples:</b>\n" +
			"• https://vm.tiktok.com/ABC123/\n" +
			"• https://tiktok.com/@user/video/123456789",
		Burmese: "❌ <b>မှားယွင်းသော TikTok Link</b>\n\n" +
			"ကျေးဇူးပြု၍ မှန်ကန်သော TikTok link တစ်ခုပေးပါ။\n\n" +
			"✅ <b>ဥပမာများ:</b>\n" +
			"• https://vm.tiktok.com/ABC123/\n" +
			"• https://tiktok.com/@user/video/123456789",
	},
	Usage: {
		English: "🤖 <b>TikTok Downloader Bot</b>\n\n" +
			"Please send a TikTok link\n\n" +
			"📝 <b>How to use:</b>\n" +
			"1. Copy a link from the TikTok app\n" +
			"2. Paste it into this chat\n" +
			"3. Pick a download format\n\n" +
			"🔧 <b>Commands:</b>\n" +
			"/start - About this bot\n" +
			"/help - Get help\n" +
			"/stats - Usage statistics",
		Burmese: "🤖 <b>TikTok Downloader Bot</b>\n\n" +
			"ကျေးဇူးပြု၍ TikTok link တစ်ခုပေးပါ\n\n" +
			"📝 <b>အသုံးပြုနည်း:</b>\n" +
			"1. TikTok app မှ link ကို copy လုပ်ပါ\n" +
			"2. ဒီ chat ထဲ paste လုပ်ပါ\n" +
			"3. Download format ရွေးပါ\n\n" +
			"🔧 <b>Commands:</b>\n" +
			"/start - Bot အကြောင်း\n" +
			"/help - အကူအညီရယူရန်\n" +
			"/stats - အသုံးပြုမှုစာရင်း",
	},
	Processing: {
		English: "⏳ <b>Fetching TikTok data...</b>\n\n" +
			"Please wait...",
		Burmese: "⏳ <b>TikTok ဒေတာရယူနေသည်...</b>\n\n" +
			"ကျေးဇူးပြု၍ စောင့်ပါ...",
	},
	ResolveFailed: {
		English: "❌ <b>Failed to fetch data</b>\n\n" +
			"Please:\n" +
			"• Check the link\n" +
			"• Try again later\n" +
			"• Try a different link\n\n" +
			"🔧 <b>Error:</b> %s",
		Burmese: "❌ <b>ဒေတာရယူခြင်းမအောင်မြင်ပါ</b>\n\n" +
			"ကျေးဇူးပြု၍:\n" +
			"• Link ကိုပြန်စစ်ပါ\n" +
			"• နောက်မှထပ်ကြိုးစားပါ\n" +
			"• တစ်ခြား link တစ်ခုပေးပါ\n\n" +
			"🔧 <b>Error:</b> %s",
	},
	NoMedia: {
		English: "❌ <b>No downloadable media found</b>\n\n" +
			"This TikTok has nothing that can be downloaded.",
		Burmese: "❌ <b>မည်သည့် media မှမတွေ့ရှိပါ</b>\n\n" +
			"ဒီ TikTok video မှာ download ဆွဲနိုင်တဲ့ media မရှိပါဘူး။",
	},
	PreviewCaption: {
		English: "📌 <b>TikTok %s</b>\n" +
			"🎤 <b>Creator:</b> %s\n" +
			"❤️ <b>Like:</b> %s\n" +
			"▶️ <b>View:</b> %s\n" +
			"💬 <b>Comment:</b> %s\n\n" +
			"Pick a download format:",
		Burmese: "📌 <b>TikTok %s</b>\n" +
			"🎤 <b>ဖန်တီးသူ:</b> %s\n" +
			"❤️ <b>Like:</b> %s\n" +
			"▶️ <b>View:</b> %s\n" +
			"💬 <b>Comment:</b> %s\n\n" +
			"ဒေါင်းလုပ်ဆွဲရန်ဖော်မက်ရွေးပါ:",
	},
	ContentVideo: {
		English: "video",
		Burmese: "ဗီဒီယို",
	},
	ContentPhotos: {
		English: "photos",
		Burmese: "ဓာတ်ပုံများ",
	},
	ContentOther: {
		English: "content",
		Burmese: "အကြောင်းအရာ",
	},
	ButtonVideo: {
		English: "🎬 MP4 (video)",
		Burmese: "🎬 MP4 (ဗီဒီယို)",
	},
	ButtonAudio: {
		English: "🎵 MP3 (audio)",
		Burmese: "🎵 MP3 (အသံ)",
	},
	ButtonPhotos: {
		English: "🖼️ Photos",
		Burmese: "🖼️ ဓာတ်ပုံများ",
	},
	Downloading: {
		English: "⏳ <b>Downloading...</b>\n\n" +
			"Please wait\n" +
			"This may take a while depending on the video size",
		Burmese: "⏳ <b>ဒေါင်းလုပ်ဆွဲနေသည်...</b>\n\n" +
			"ကျေးဇူးပြု၍ စောင့်ပါ\n" +
			"ဗီဒီယိုအရွယ်အစားပေါ်မူတည်၍ ကြာနိုင်ပါသည်",
	},
	DownloadFailed: {
		English: "❌ <b>Download failed</b>\n\n" +
			"Please try again later\n\n" +
			"🔧 <b>Error:</b> %s",
		Burmese: "❌ <b>ဒေါင်းလုပ်ဆွဲရန် မအောင်မြင်ပါ</b>\n\n" +
			"ကျေးဇူးပြု၍ နောက်မှထပ်ကြိုးစားပါ\n\n" +
			"🔧 <b>Error:</b> %s",
	},
	Delivered: {
		English: "✅ <b>Download complete!</b>\n\n" +
			"📦 Sending media...",
		Burmese: "✅ <b>ဒေါင်းလုပ်ဆွဲပြီးပါပြီ!</b>\n\n" +
			"📦 Media ကို ပို့နေသည်...",
	},
	MediaCaption: {
		English: "✅ <b>Download complete!</b>\n\n" +
			"🎬 Downloaded by %s",
		Burmese: "✅ <b>Download ဆွဲပြီးပါပြီ!</b>\n\n" +
			"🎬 %s မှ download ဆွဲထားသည်",
	},
	SendFailed: {
		English: "❌ <b>Failed to send media</b>\n\n" +
			"Please try again later",
		Burmese: "❌ <b>Media ပို့ခြင်းမအောင်မြင်ပါ</b>\n\n" +
			"ကျေးဇူးပြု၍ နောက်မှထပ်ကြိုးစားပါ",
	},
	MenuExpired: {
		English: "This menu has expired. Please send the link again.",
		Burmese: "ဒီ menu သက်တမ်းကုန်သွားပါပြီ။ Link ကို ပြန်ပို့ပေးပါ။",
	},
	DeliveryError: {
		English: "Error: %s",
		Burmese: "Error: %s",
	},
}
