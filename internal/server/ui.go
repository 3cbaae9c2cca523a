package server

import "html/template"

type indexData struct {
	DefaultScript string
}

// indexTemplate is the single page UI: an upload form on the left, the
// rendered figure and script output on the right. The palette matches
// the figure colors.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ElegantPraat</title>
<style>
  body {
    margin: 0;
    background-color: #F2F0EB;
    color: #5F6F7A;
    font-family: 'Helvetica Neue', sans-serif;
    display: flex;
  }
  aside {
    width: 320px;
    min-height: 100vh;
    padding: 20px;
    box-sizing: border-box;
    background-color: #E6E2DD;
    border-right: 1px solid #D3D3D3;
  }
  main { flex: 1; padding: 24px; }
  h1 { font-size: 1.3em; }
  h2 { font-size: 1.0em; margin-top: 1.6em; }
  hr { border: none; border-top: 1px solid #D3D3D3; }
  .upload {
    background-color: #FFFFFF;
    padding: 15px;
    border-radius: 10px;
    border: 1px dashed #A88F83;
    margin-bottom: 12px;
  }
  button {
    background-color: #8DA399;
    color: white;
    border-radius: 8px;
    border: none;
    padding: 10px 18px;
    cursor: pointer;
    box-shadow: 0 2px 4px rgba(0,0,0,0.1);
    transition: all 0.3s;
  }
  button:hover {
    background-color: #7A9188;
    transform: translateY(-1px);
    box-shadow: 0 4px 6px rgba(0,0,0,0.15);
  }
  textarea {
    width: 100%;
    height: 150px;
    box-sizing: border-box;
    border: 1px solid #D3D3D3;
    border-radius: 6px;
    font-family: monospace;
  }
  #figure img { max-width: 100%; }
  #output, #error {
    white-space: pre-wrap;
    font-family: monospace;
    padding: 12px;
    border-radius: 8px;
  }
  #output { background-color: #FFFFFF; }
  #error { background-color: #E8D5CF; color: #7A4A3A; }
  .hidden { display: none; }
  label { display: block; margin: 6px 0; }
</style>
</head>
<body>
<aside>
  <h1>&#127908; ElegantPraat</h1>
  <hr>
  <h2>1. Import</h2>
  <div class="upload">
    <label>Audio (WAV)
      <input type="file" id="wav" accept=".wav">
    </label>
    <label>Annotations (TextGrid)
      <input type="file" id="textgrid" accept=".TextGrid,.textgrid">
    </label>
  </div>
  <hr>
  <h2>2. Display</h2>
  <label><input type="checkbox" id="spectrogram" checked> Spectrogram</label>
  <label><input type="checkbox" id="pitch" checked> Pitch overlay</label>
  <hr>
  <h2>3. Script</h2>
  <textarea id="script">{{.DefaultScript}}</textarea>
  <p><button id="run">Run</button></p>
</aside>
<main>
  <p id="welcome">&#128075; Import a WAV file on the left to begin.</p>
  <div id="figure"></div>
  <h2 id="report-title" class="hidden">&#128221; Analysis report</h2>
  <pre id="output" class="hidden"></pre>
  <pre id="error" class="hidden"></pre>
</main>
<script>
async function run() {
  const wav = document.getElementById('wav').files[0];
  if (!wav) { return; }

  const form = new FormData();
  form.append('wav', wav);
  const tg = document.getElementById('textgrid').files[0];
  if (tg) { form.append('textgrid', tg); }
  form.append('spectrogram', document.getElementById('spectrogram').checked ? 'on' : 'off');
  form.append('pitch', document.getElementById('pitch').checked ? 'on' : 'off');
  form.append('script', document.getElementById('script').value);

  const resp = await fetch('/api/analyze', { method: 'POST', body: form });
  const errBox = document.getElementById('error');
  const outBox = document.getElementById('output');
  const title = document.getElementById('report-title');
  errBox.classList.add('hidden');
  outBox.classList.add('hidden');
  title.classList.add('hidden');

  if (!resp.ok) {
    errBox.textContent = 'Error: ' + await resp.text();
    errBox.classList.remove('hidden');
    return;
  }

  const data = await resp.json();
  document.getElementById('welcome').classList.add('hidden');
  document.getElementById('figure').innerHTML =
    '<img src="data:image/png;base64,' + data.image + '" alt="waveform figure">';

  if (data.script_error) {
    errBox.textContent = 'Error: ' + data.script_error;
    errBox.classList.remove('hidden');
  }
  if (data.script_output) {
    title.classList.remove('hidden');
    outBox.textContent = data.script_output;
    outBox.classList.remove('hidden');
  }
}
document.getElementById('run').addEventListener('click', run);
document.getElementById('wav').addEventListener('change', run);
</script>
</body>
</html>
`))
