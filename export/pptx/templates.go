package pptx

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"text/template"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const (
	nsA       = `http://schemas.openxmlformats.org/drawingml/2006/main`
	nsR       = `http://schemas.openxmlformats.org/officeDocument/2006/relationships`
	nsP       = `http://schemas.openxmlformats.org/presentationml/2006/main`
	nsRels    = `http://schemas.openxmlformats.org/package/2006/relationships`
	relPrefix = `http://schemas.openxmlformats.org/officeDocument/2006/relationships/`
	pmlNS     = `xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`
	ctPrefix  = `application/vnd.openxmlformats-officedocument.presentationml.`
)

// Template names.
const (
	contentTypesTmpl     = "contentTypes"
	coreTmpl             = "core"
	appTmpl              = "app"
	presentationTmpl     = "presentation"
	presentationRelsTmpl = "presentationRels"
	slideTmpl            = "slide"
	slideRelsTmpl        = "slideRels"
	notesSlideTmpl       = "notesSlide"
	notesSlideRelsTmpl   = "notesSlideRels"
)

var templates = template.Must(template.New("pptx").Funcs(template.FuncMap{
	"xml":        escape,
	"inc":        func(i int) int { return i + 1 },
	"add":        func(a, b int) int { return a + b },
	"hundredths": func(pt float64) int { return int(pt * 100) },
	"alpha":      func(pct int) int { return pct * 1000 },
	"inset": func(v int64) int64 {
		if v == 0 {
			return 91440
		}
		return v
	},
	"anchor": func(a string) string {
		if a == "" {
			return "t"
		}
		return a
	},
	"align": func(a string) string {
		if a == "" {
			return "l"
		}
		return a
	},
}).Parse(partTemplates))

// escape renders s as XML character data. Characters not allowed in XML
// are replaced.
func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

const partTemplates = `
{{define "contentTypes"}}<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`{{range $ext, $mime := .Media}}<Default Extension="{{$ext}}" ContentType="{{$mime}}"/>{{end}}` +
	`<Override PartName="/ppt/presentation.xml" ContentType="` + ctPrefix + `presentation.main+xml"/>` +
	`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="` + ctPrefix + `slideMaster+xml"/>` +
	`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="` + ctPrefix + `slideLayout+xml"/>` +
	`<Override PartName="/ppt/notesMasters/notesMaster1.xml" ContentType="` + ctPrefix + `notesMaster+xml"/>` +
	`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>` +
	`<Override PartName="/ppt/theme/theme2.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>` +
	`<Override PartName="/ppt/presProps.xml" ContentType="` + ctPrefix + `presProps+xml"/>` +
	`<Override PartName="/ppt/viewProps.xml" ContentType="` + ctPrefix + `viewProps+xml"/>` +
	`<Override PartName="/ppt/tableStyles.xml" ContentType="` + ctPrefix + `tableStyles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
	`{{range $i, $_ := .Slides}}` +
	`<Override PartName="/ppt/slides/slide{{inc $i}}.xml" ContentType="` + ctPrefix + `slide+xml"/>` +
	`<Override PartName="/ppt/notesSlides/notesSlide{{inc $i}}.xml" ContentType="` + ctPrefix + `notesSlide+xml"/>` +
	`{{end}}</Types>{{end}}

{{define "core"}}<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
	`<dc:title>{{xml .Title}}</dc:title><dc:creator>{{xml .Creator}}</dc:creator>` +
	`<dcterms:created xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:created>` +
	`<dcterms:modified xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:modified>` +
	`</cp:coreProperties>{{end}}

{{define "app"}}<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">` +
	`<Application>repodeck</Application><PresentationFormat>Widescreen</PresentationFormat>` +
	`<Slides>{{.Slides}}</Slides><Notes>{{.Slides}}</Notes></Properties>{{end}}

{{define "presentation"}}<p:presentation ` + pmlNS + ` saveSubsetFonts="1">` +
	`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
	`<p:notesMasterIdLst><p:notesMasterId r:id="rId2"/></p:notesMasterIdLst>` +
	`<p:sldIdLst>{{range $i, $_ := .Slides}}<p:sldId id="{{add $i 256}}" r:id="rId{{add $i 7}}"/>{{end}}</p:sldIdLst>` +
	`<p:sldSz cx="{{.Width}}" cy="{{.Height}}"/><p:notesSz cx="6858000" cy="9144000"/>` +
	`</p:presentation>{{end}}

{{define "presentationRels"}}<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relPrefix + `slideMaster" Target="slideMasters/slideMaster1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relPrefix + `notesMaster" Target="notesMasters/notesMaster1.xml"/>` +
	`<Relationship Id="rId3" Type="` + relPrefix + `theme" Target="theme/theme1.xml"/>` +
	`<Relationship Id="rId4" Type="` + relPrefix + `presProps" Target="presProps.xml"/>` +
	`<Relationship Id="rId5" Type="` + relPrefix + `viewProps" Target="viewProps.xml"/>` +
	`<Relationship Id="rId6" Type="` + relPrefix + `tableStyles" Target="tableStyles.xml"/>` +
	`{{range $i, $_ := .}}<Relationship Id="rId{{add $i 7}}" Type="` + relPrefix + `slide" Target="slides/slide{{inc $i}}.xml"/>{{end}}` +
	`</Relationships>{{end}}

{{define "slide"}}<p:sld ` + pmlNS + `><p:cSld>` +
	`{{if .Background}}<p:bg><p:bgPr><a:solidFill><a:srgbClr val="{{.Background}}"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>{{end}}` +
	`<p:spTree>` + groupProps +
	`{{range .Items}}{{if .Picture}}{{template "pic" .}}{{else}}{{template "sp" .}}{{end}}{{end}}` +
	`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>{{end}}

{{define "sp"}}<p:sp><p:nvSpPr><p:cNvPr id="{{.ID}}" name="{{xml .Shape.Name}}"/><p:cNvSpPr{{if .Shape.Text}} txBox="1"{{end}}/><p:nvPr/></p:nvSpPr>` +
	`{{with .Shape}}<p:spPr><a:xfrm><a:off x="{{.Frame.X}}" y="{{.Frame.Y}}"/><a:ext cx="{{.Frame.W}}" cy="{{.Frame.H}}"/></a:xfrm>` +
	`<a:prstGeom prst="{{.Geometry}}"><a:avLst/></a:prstGeom>` +
	`{{if .Fill}}<a:solidFill><a:srgbClr val="{{.Fill}}">{{if .FillAlpha}}<a:alpha val="{{alpha .FillAlpha}}"/>{{end}}</a:srgbClr></a:solidFill>{{else}}<a:noFill/>{{end}}` +
	`{{if .Line}}<a:ln w="12700"><a:solidFill><a:srgbClr val="{{.Line}}"/></a:solidFill>{{if .LineDash}}<a:prstDash val="dash"/>{{end}}</a:ln>{{else}}<a:ln><a:noFill/></a:ln>{{end}}` +
	`</p:spPr>{{with .Text}}{{template "txBody" .}}{{end}}{{end}}</p:sp>{{end}}

{{define "txBody"}}<p:txBody><a:bodyPr wrap="square" lIns="{{inset .Inset}}" tIns="{{inset .Inset}}" rIns="{{inset .Inset}}" bIns="{{inset .Inset}}" anchor="{{anchor .Anchor}}"><a:normAutofit/></a:bodyPr><a:lstStyle/>` +
	`{{range .Paragraphs}}{{template "para" .}}{{else}}<a:p><a:endParaRPr lang="en-US"/></a:p>{{end}}</p:txBody>{{end}}

{{define "para"}}<a:p><a:pPr algn="{{align .Align}}"{{if eq .Bullet 2}} marL="457200" indent="-457200"{{else if eq .Bullet 1}} marL="285750" indent="-285750"{{end}}>` +
	`{{if .SpaceAfter}}<a:spcAft><a:spcPts val="{{hundredths .SpaceAfter}}"/></a:spcAft>{{end}}` +
	`{{if eq .Bullet 2}}<a:buFont typeface="+mj-lt"/><a:buAutoNum type="arabicPeriod"/>{{else if eq .Bullet 1}}<a:buFont typeface="Arial"/><a:buChar char="&#8226;"/>{{else}}<a:buNone/>{{end}}` +
	`</a:pPr>{{range .Runs}}{{template "run" .}}{{end}}</a:p>{{end}}

{{define "run"}}<a:r><a:rPr lang="en-US"{{if .Size}} sz="{{hundredths .Size}}"{{end}}{{if .Bold}} b="1"{{end}}{{if .Italic}} i="1"{{end}} dirty="0">` +
	`{{if .Color}}<a:solidFill><a:srgbClr val="{{.Color}}"/></a:solidFill>{{end}}{{if .Font}}<a:latin typeface="{{xml .Font}}"/>{{end}}` +
	`</a:rPr><a:t>{{xml .Text}}</a:t></a:r>{{end}}

{{define "pic"}}{{with .Picture}}<p:pic><p:nvPicPr><p:cNvPr id="{{$.ID}}" name="{{xml .Name}}"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>` +
	`<p:blipFill><a:blip r:embed="{{.RelID}}"/><a:srcRect l="{{.Crop.Left}}" t="{{.Crop.Top}}" r="{{.Crop.Right}}" b="{{.Crop.Bottom}}"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
	`<p:spPr><a:xfrm><a:off x="{{.Frame.X}}" y="{{.Frame.Y}}"/><a:ext cx="{{.Frame.W}}" cy="{{.Frame.H}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>{{end}}{{end}}

{{define "slideRels"}}<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relPrefix + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relPrefix + `notesSlide" Target="../notesSlides/notesSlide{{.N}}.xml"/>` +
	`{{range .Images}}<Relationship Id="{{.RelID}}" Type="` + relPrefix + `image" Target="../media/{{.Media}}"/>{{end}}` +
	`</Relationships>{{end}}

{{define "notesSlide"}}<p:notes ` + pmlNS + `><p:cSld><p:spTree>` + groupProps +
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1" noRot="1" noChangeAspect="1"/></p:cNvSpPr><p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr><p:spPr/></p:sp>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes Placeholder 2"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>` +
	`<p:txBody><a:bodyPr/><a:lstStyle/>{{range .}}<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>{{xml .}}</a:t></a:r></a:p>{{else}}<a:p><a:endParaRPr lang="en-US"/></a:p>{{end}}</p:txBody></p:sp>` +
	`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:notes>{{end}}

{{define "notesSlideRels"}}<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relPrefix + `notesMaster" Target="../notesMasters/notesMaster1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relPrefix + `slide" Target="../slides/slide{{.}}.xml"/>` +
	`</Relationships>{{end}}
`

const groupProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

const clrMap = `<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`

const rootRels = `<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relPrefix + `officeDocument" Target="ppt/presentation.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="` + relPrefix + `extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const presProps = `<p:presentationPr ` + pmlNS + `/>`

const viewProps = `<p:viewPr ` + pmlNS + `><p:gridSpacing cx="76200" cy="76200"/></p:viewPr>`

const tableStyles = `<a:tblStyleLst xmlns:a="` + nsA + `" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`

const slideMaster = `<p:sldMaster ` + pmlNS + `><p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + groupProps + `</p:spTree></p:cSld>` +
	clrMap +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`<p:txStyles>` +
	`<p:titleStyle><a:lvl1pPr><a:defRPr sz="4400"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mj-lt"/></a:defRPr></a:lvl1pPr></p:titleStyle>` +
	`<p:bodyStyle><a:lvl1pPr><a:defRPr sz="2000"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:bodyStyle>` +
	`<p:otherStyle><a:lvl1pPr><a:defRPr sz="1800"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:otherStyle>` +
	`</p:txStyles></p:sldMaster>`

const slideMasterRels = `<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relPrefix + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relPrefix + `theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

const slideLayout = `<p:sldLayout ` + pmlNS + ` type="blank" preserve="1"><p:cSld name="Blank"><p:spTree>` + groupProps + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const slideLayoutRels = `<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relPrefix + `slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

const notesMaster = `<p:notesMaster ` + pmlNS + `><p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + groupProps +
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1" noRot="1" noChangeAspect="1"/></p:cNvSpPr><p:nvPr><p:ph type="sldImg" idx="2"/></p:nvPr></p:nvSpPr>` +
	`<p:spPr><a:xfrm><a:off x="685800" y="1143000"/><a:ext cx="5486400" cy="3086100"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/><a:ln w="12700"><a:solidFill><a:prstClr val="black"/></a:solidFill></a:ln></p:spPr></p:sp>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes Placeholder 2"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" sz="quarter" idx="3"/></p:nvPr></p:nvSpPr>` +
	`<p:spPr><a:xfrm><a:off x="685800" y="4400550"/><a:ext cx="5486400" cy="3600450"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>` +
	`<p:txBody><a:bodyPr vert="horz" lIns="91440" tIns="45720" rIns="91440" bIns="45720" rtlCol="0"/><a:lstStyle/><a:p><a:pPr lvl="0"/><a:r><a:rPr lang="en-US"/><a:t>Speaker notes</a:t></a:r></a:p></p:txBody></p:sp>` +
	`</p:spTree></p:cSld>` + clrMap +
	`<p:notesStyle><a:lvl1pPr marL="0" algn="l" defTabSz="914400" rtl="0" eaLnBrk="1" latinLnBrk="0" hangingPunct="1"><a:defRPr sz="1200" kern="1200"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/><a:ea typeface="+mn-ea"/><a:cs typeface="+mn-cs"/></a:defRPr></a:lvl1pPr></p:notesStyle>` +
	`</p:notesMaster>`

const notesMasterRels = `<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relPrefix + `theme" Target="../theme/theme2.xml"/>` +
	`</Relationships>`

// theme returns a theme part using the deck palette.
func theme(name string) string {
	solid := `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	line := func(w int) string {
		return `<a:ln w="` + strconv.Itoa(w) + `" cap="flat" cmpd="sng" algn="ctr">` + solid + `<a:prstDash val="solid"/></a:ln>`
	}
	effect := `<a:effectStyle><a:effectLst/></a:effectStyle>`
	color := func(tag, hex string) string {
		return `<a:` + tag + `><a:srgbClr val="` + hex + `"/></a:` + tag + `>`
	}
	font := func(tag, face string) string {
		return `<a:` + tag + `><a:latin typeface="` + face + `"/><a:ea typeface=""/><a:cs typeface=""/></a:` + tag + `>`
	}

	return `<a:theme xmlns:a="` + nsA + `" name="` + escape(name) + `"><a:themeElements>` +
		`<a:clrScheme name="Repodeck">` +
		color("dk1", colorInk) + color("lt1", "FFFFFF") + color("dk2", "1E293B") + color("lt2", "F1F5F9") +
		color("accent1", colorAccent) + color("accent2", colorAccentDeep) + color("accent3", "0EA5E9") +
		color("accent4", "10B981") + color("accent5", "F59E0B") + color("accent6", "EF4444") +
		color("hlink", "2563EB") + color("folHlink", "7C3AED") +
		`</a:clrScheme>` +
		`<a:fontScheme name="Repodeck">` + font("majorFont", "Calibri Light") + font("minorFont", "Calibri") + `</a:fontScheme>` +
		`<a:fmtScheme name="Repodeck">` +
		`<a:fillStyleLst>` + solid + solid + solid + `</a:fillStyleLst>` +
		`<a:lnStyleLst>` + line(6350) + line(12700) + line(19050) + `</a:lnStyleLst>` +
		`<a:effectStyleLst>` + effect + effect + effect + `</a:effectStyleLst>` +
		`<a:bgFillStyleLst>` + solid + solid + solid + `</a:bgFillStyleLst>` +
		`</a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`
}

// Theme palette.
const (
	colorInk        = "0F172A"
	colorAccent     = "6366F1"
	colorAccentDeep = "4F46E5"
)
